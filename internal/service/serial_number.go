package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/constants"

	"github.com/google/uuid"
)

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("%s%s%s", constants.OrderNoPrefix, now, randPart)
}

func generatePaymentReference() string {
	return "PAY" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

func generateTrackingNumber(length int) string {
	if length <= 0 {
		length = 8
	}
	return randNumeric(length)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
