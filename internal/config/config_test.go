package config

import "testing"

func TestLoadDoesNotInjectWeakSecretDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.OpenAIAPIKey != "" {
		t.Fatalf("expected empty OPENAI_API_KEY when unset, got %q", cfg.OpenAIAPIKey)
	}
}

func TestLoadEstimationRateDefaults(t *testing.T) {
	t.Setenv("IMPORT_HPP_RATIO", "")
	t.Setenv("IMPORT_PLATFORM_FEE_RATE", "")
	t.Setenv("IMPORT_PACKING_COST", "")

	cfg := Load()
	if cfg.ImportHPPRatio != 0.6 || cfg.ImportPlatformFeeRate != 0.08 || cfg.ImportPackingCost != 2000 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEstimationRateOverrides(t *testing.T) {
	t.Setenv("IMPORT_HPP_RATIO", "0.5")
	t.Setenv("IMPORT_PLATFORM_FEE_RATE", "0.1")
	t.Setenv("IMPORT_PACKING_COST", "1500")

	cfg := Load()
	if cfg.ImportHPPRatio != 0.5 || cfg.ImportPlatformFeeRate != 0.1 || cfg.ImportPackingCost != 1500 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsMalformedRates(t *testing.T) {
	t.Setenv("IMPORT_HPP_RATIO", "banyak")
	cfg := Load()
	if cfg.ImportHPPRatio != 0.6 {
		t.Fatalf("malformed rate must fall back to default, got %v", cfg.ImportHPPRatio)
	}
}
