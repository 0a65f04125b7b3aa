package utils

import "github.com/google/uuid"

// GenerateOrderID returns the merchant-side order id sent with every invoice.
func GenerateOrderID() string {
	return "inv_" + uuid.NewString()
}
