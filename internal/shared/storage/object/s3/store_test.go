package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "analyses/a1/t1.txt", want: "analyses/a1/t1.txt"},
		{name: "simple prefix", prefix: "root", key: "analyses/a1/t1.txt", want: "root/analyses/a1/t1.txt"},
		{name: "prefix trailing slash", prefix: "root/", key: "analyses/a1/t1.txt", want: "root/analyses/a1/t1.txt"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/analyses/a1/t1.txt", want: "root/analyses/a1/t1.txt"},
		{name: "empty key", prefix: "vetted", key: "", want: "vetted"},
		{name: "nested prefix", prefix: "root/sub", key: "analyses/a1/t1.txt", want: "root/sub/analyses/a1/t1.txt"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
