package helpers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// PaymentSignature computes the gateway checkout signature:
// hex(HMAC-SHA256(secret, gatewayOrderID + "|" + gatewayPaymentID)).
func PaymentSignature(secret, gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func VerifyPaymentSignature(secret, gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := PaymentSignature(secret, gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
