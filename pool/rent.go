package pool

// Rent parameters matching the cluster defaults: accounts holding two years
// of rent are exempt.
const (
	accountStorageOverhead    = 128
	lamportsPerByteYear       = 3480
	exemptionThresholdYears   = 2
	rentExemptLamportsPerByte = lamportsPerByteYear * exemptionThresholdYears
)

// MinimumBalance returns the rent-exempt balance for an account holding
// dataLen bytes.
func MinimumBalance(dataLen int) uint64 {
	return uint64(accountStorageOverhead+dataLen) * rentExemptLamportsPerByte
}
