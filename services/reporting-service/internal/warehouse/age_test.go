package warehouse

import "testing"

func TestAgeGroup(t *testing.T) {
	cases := []struct {
		age  int
		want string
	}{
		{-1, "unknown"},
		{0, "unknown"},
		{1, "0-17"},
		{17, "0-17"},
		{18, "18-35"},
		{35, "18-35"},
		{36, "36-50"},
		{50, "36-50"},
		{51, "51-65"},
		{65, "51-65"},
		{66, "65+"},
		{90, "65+"},
	}
	for _, c := range cases {
		if got := AgeGroup(c.age); got != c.want {
			t.Errorf("AgeGroup(%d) = %q, want %q", c.age, got, c.want)
		}
	}
}
