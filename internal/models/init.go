package models

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// EnsureSuperAdmin 管理员表为空时创建超级管理员，返回是否新建
func EnsureSuperAdmin(username, password string) (bool, error) {
	var count int64
	if err := DB.Model(&Admin{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	if password == "" {
		return false, errors.New("super admin password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	admin := Admin{Username: username, PasswordHash: string(hash), IsSuper: true}
	if err := DB.Create(&admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
