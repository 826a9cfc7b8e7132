package warehouse

// AgeGroup buckets a patient age for the dim_patient dimension.
func AgeGroup(age int) string {
	switch {
	case age <= 0:
		return "unknown"
	case age < 18:
		return "0-17"
	case age <= 35:
		return "18-35"
	case age <= 50:
		return "36-50"
	case age <= 65:
		return "51-65"
	default:
		return "65+"
	}
}
