package validation

import "strings"

var abaWeights = [9]int{3, 7, 1, 3, 7, 1, 3, 7, 1}

// RoutingNumberValidator checks the ABA routing number checksum.
type RoutingNumberValidator struct{}

func NewRoutingNumberValidator() RoutingNumberValidator {
	return RoutingNumberValidator{}
}

func (RoutingNumberValidator) Valid(routingNumber string) bool {
	rn := strings.TrimSpace(routingNumber)
	if len(rn) != 9 {
		return false
	}

	sum := 0
	for i, r := range rn {
		if r < '0' || r > '9' {
			return false
		}
		sum += int(r-'0') * abaWeights[i]
	}
	return sum != 0 && sum%10 == 0
}
