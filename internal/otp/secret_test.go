package otp

import (
	"bytes"
	"errors"
	"testing"
)

type failingReader struct{ err error }

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }

func TestGeneratorErrors(t *testing.T) {
	tests := []struct {
		name    string
		gen     Generator
		length  int
		wantErr error
	}{
		{
			name:    "Zero length",
			gen:     Generator{Rand: bytes.NewReader(make([]byte, 64))},
			length:  0,
			wantErr: ErrSecretLength,
		},
		{
			name:    "Negative length",
			gen:     Generator{Rand: bytes.NewReader(make([]byte, 64))},
			length:  -5,
			wantErr: ErrSecretLength,
		},
		{
			name:    "No random source",
			gen:     Generator{},
			length:  DefaultSecretLength,
			wantErr: ErrRandomUnavailable,
		},
		{
			name:    "Failing random source",
			gen:     Generator{Rand: failingReader{err: errors.New("entropy pool closed")}},
			length:  DefaultSecretLength,
			wantErr: ErrRandomUnavailable,
		},
		{
			name:    "Short read",
			gen:     Generator{Rand: bytes.NewReader([]byte{1, 2, 3})},
			length:  DefaultSecretLength,
			wantErr: ErrRandomUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.gen.Generate(tt.length)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Generate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGeneratorInjectedSource(t *testing.T) {
	src := []byte{0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10, 0x11}
	gen := Generator{Rand: bytes.NewReader(src)}

	secret, err := gen.Generate(8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(secret, src) {
		t.Errorf("Generate() = %x, want the injected bytes %x", secret, src)
	}
}

func TestGenerateSecretLength(t *testing.T) {
	secret, err := GenerateSecret(DefaultSecretLength)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret) != DefaultSecretLength {
		t.Errorf("len(secret) = %d, want %d", len(secret), DefaultSecretLength)
	}
}

func TestGenerateSecretDistinct(t *testing.T) {
	// With 160 bits of entropy a repeat among 10,000 draws would indicate
	// a broken source, not bad luck.
	seen := make(map[string]bool, 10000)
	for i := 0; i < 10000; i++ {
		secret, err := GenerateSecret(DefaultSecretLength)
		if err != nil {
			t.Fatal(err)
		}
		key := string(secret)
		if seen[key] {
			t.Fatalf("duplicate secret after %d generations", i+1)
		}
		seen[key] = true
	}
}
