package service

import (
	"context"
	"strings"

	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"
)

// AddressInput 收货地址参数
type AddressInput struct {
	Name         string
	Phone        string
	Description  string
	CityName     string
	ProvinceName string
	DistanceKm   float64
	IsDefault    bool
}

// AddressService 收货地址服务
type AddressService struct {
	addressRepo repository.AddressRepository
}

// NewAddressService 创建收货地址服务
func NewAddressService(addressRepo repository.AddressRepository) *AddressService {
	return &AddressService{addressRepo: addressRepo}
}

// List 用户地址列表
func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	addresses, err := s.addressRepo.WithContext(ctx).ListByUser(userID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	return addresses, nil
}

// Create 新增地址，用户的第一个地址自动设为默认
func (s *AddressService) Create(ctx context.Context, userID uint, input AddressInput) (*models.Address, error) {
	address := &models.Address{
		UserID:       userID,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		Description:  strings.TrimSpace(input.Description),
		CityName:     strings.TrimSpace(input.CityName),
		ProvinceName: strings.TrimSpace(input.ProvinceName),
		DistanceKm:   input.DistanceKm,
		IsDefault:    input.IsDefault,
	}
	if address.Name == "" || address.Phone == "" || address.Description == "" || address.DistanceKm < 0 {
		return nil, ErrInvalidAddress
	}
	repo := s.addressRepo.WithContext(ctx)
	if !address.IsDefault {
		current, err := repo.GetDefault(userID)
		if err != nil {
			return nil, wrapStorage(err)
		}
		address.IsDefault = current == nil
	}
	if err := repo.Create(address); err != nil {
		return nil, wrapStorage(err)
	}
	return address, nil
}
