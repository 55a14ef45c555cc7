// Package validation содержит функции валидации входных данных.
package validation

const minAddressLength = 10

// IsValidWalletAddress выполняет минимальную проверку адреса кошелька:
// длина не меньше десяти символов и только буквенно-цифровое содержимое.
// Подлинность адреса в сети клиент не проверяет.
func IsValidWalletAddress(address string) bool {
	if len(address) < minAddressLength {
		return false
	}

	for i := 0; i < len(address); i++ {
		ch := address[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'z':
		case ch >= 'A' && ch <= 'Z':
		default:
			return false
		}
	}

	return true
}
