package llm

import (
	"errors"
	"testing"
)

func TestAvailableProviders(t *testing.T) {
	providers := AvailableProviders()
	if len(providers) != 4 {
		t.Fatalf("got %d providers, want 4", len(providers))
	}

	want := []ProviderType{ProviderAnthropic, ProviderOpenAI, ProviderBedrock, ProviderGemini}
	seen := make(map[ProviderType]bool)
	for i, p := range providers {
		if p.ID != want[i] {
			t.Errorf("providers[%d].ID = %q, want %q", i, p.ID, want[i])
		}
		if seen[p.ID] {
			t.Errorf("duplicate provider id %q", p.ID)
		}
		seen[p.ID] = true
		if len(p.Models) == 0 {
			t.Errorf("%s has no models", p.ID)
		}
	}

	// Each call hands out fresh slices.
	providers[0].Models[0] = "mutated"
	if AvailableProviders()[0].Models[0] == "mutated" {
		t.Error("AvailableProviders shares model slices between calls")
	}
}

func TestCreateProvider(t *testing.T) {
	for _, pt := range allProviders {
		provider, err := CreateProvider(pt, Config{})
		if err != nil {
			t.Fatalf("CreateProvider(%s) error = %v", pt, err)
		}
		if provider.Name() != pt.String() {
			t.Errorf("Name() = %q, want %q", provider.Name(), pt)
		}
		if provider.Model() != pt.DefaultModel() {
			t.Errorf("%s Model() = %q, want default %q", pt, provider.Model(), pt.DefaultModel())
		}
		if provider.Initialized() {
			t.Errorf("%s initialized at construction", pt)
		}
		if provider.ProviderInfo().ID != pt {
			t.Errorf("%s ProviderInfo().ID = %q", pt, provider.ProviderInfo().ID)
		}
	}

	provider, err := CreateProvider(ProviderOpenAI, Config{Model: ModelOpenAIGPT41})
	if err != nil {
		t.Fatal(err)
	}
	if provider.Model() != ModelOpenAIGPT41 {
		t.Errorf("Model() = %q, want configured model", provider.Model())
	}

	bedrock, _ := CreateProvider(ProviderBedrock, Config{})
	if _, ok := bedrock.(RegionalProvider); !ok {
		t.Error("bedrock provider does not expose regions")
	}
	openai, _ := CreateProvider(ProviderOpenAI, Config{})
	if _, ok := openai.(RegionalProvider); ok {
		t.Error("openai provider unexpectedly exposes regions")
	}
}

func TestCreateProviderUnknown(t *testing.T) {
	_, err := CreateProvider(ProviderType("unknown-vendor"), Config{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("error = %v, want ErrUnknownProvider", err)
	}

	err = ValidateConfig(ProviderType("unknown-vendor"), Config{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("ValidateConfig error = %v, want ErrUnknownProvider", err)
	}
}

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		input   string
		want    ProviderType
		wantErr bool
	}{
		{"openai", ProviderOpenAI, false},
		{"OpenAI", ProviderOpenAI, false},
		{"gpt", ProviderOpenAI, false},
		{"claude", ProviderAnthropic, false},
		{"aws", ProviderBedrock, false},
		{" Bedrock ", ProviderBedrock, false},
		{"google", ProviderGemini, false},
		{"deepseek", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseProviderType(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseProviderType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrUnknownProvider) {
			t.Errorf("ParseProviderType(%q) error kind = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("ParseProviderType(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestProviderTypeEnvVar(t *testing.T) {
	for _, pt := range allProviders {
		if pt.EnvVar() == "" {
			t.Errorf("%s has no env var", pt)
		}
	}
	if ProviderType("x").EnvVar() != "" {
		t.Error("unknown provider has an env var")
	}
}

func TestValidateConfigErrorKinds(t *testing.T) {
	tests := []struct {
		pt   ProviderType
		cfg  Config
		want error
	}{
		{ProviderOpenAI, Config{}, ErrConfig},
		{ProviderOpenAI, Config{Credentials: Credentials{APIKey: "key-without-prefix"}}, ErrAuth},
		{ProviderGemini, Config{Credentials: Credentials{APIKey: "sk-wrong-vendor"}}, ErrAuth},
		{ProviderBedrock, Config{Credentials: Credentials{AccessKeyID: "AKIATEST12345", SecretAccessKey: testSecretKey}}, ErrAuth},
		{ProviderBedrock, Config{Credentials: Credentials{AccessKeyID: testAccessKey}}, ErrConfig},
	}

	for _, tt := range tests {
		err := ValidateConfig(tt.pt, tt.cfg)
		if !errors.Is(err, tt.want) {
			t.Errorf("ValidateConfig(%s, %+v) = %v, want %v", tt.pt, tt.cfg.Credentials, err, tt.want)
		}
	}
}
