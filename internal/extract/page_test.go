package extract

import "testing"

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "og title preferred",
			page: `<html><head><meta property="og:title" content="春日野餐"><title>other</title></head></html>`,
			want: "春日野餐",
		},
		{
			name: "title fallback with suffix",
			page: `<html><head><title>春日野餐 - 抖音</title></head></html>`,
			want: "春日野餐",
		},
		{
			name: "nothing",
			page: `<html><body>hi</body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PageTitle(tt.page, " - 抖音"); got != tt.want {
				t.Errorf("PageTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
