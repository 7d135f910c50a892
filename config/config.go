package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys understood by the provider. Values come from the environment (or a
// config.yaml next to the binary); anything missing falls back to the
// documented default so a bad deployment never breaks scoring or escalation.
const (
	KeyRelanceIntervalDays = "relance_interval_days"
	KeyMaxRelances         = "max_relances"
	KeyRFQExpirationDays   = "rfq_expiration_days"
	KeyWeightPrice         = "score_weight_price"
	KeyWeightDelay         = "score_weight_delay"
	KeyWeightConformity    = "score_weight_conformity"
	KeyDefaultTaxRate      = "default_tax_rate"
	KeyDefaultCurrency     = "default_currency"
	KeyOrderAppendDraft    = "order_append_draft"
	KeyEscalationCronSpec  = "escalation_cron_spec"
	KeyPublicFormBaseURL   = "public_form_base_url"
)

// Weights holds the multi-criteria scoring weights.
type Weights struct {
	Price      float64
	Delay      float64
	Conformity float64
}

// Provider is the read-only configuration collaborator.
type Provider struct {
	v *viper.Viper
}

// New builds a Provider with the documented defaults applied.
func New() *Provider {
	v := viper.New()
	v.SetDefault(KeyRelanceIntervalDays, 2)
	v.SetDefault(KeyMaxRelances, 3)
	v.SetDefault(KeyRFQExpirationDays, 30)
	v.SetDefault(KeyWeightPrice, 0.40)
	v.SetDefault(KeyWeightDelay, 0.35)
	v.SetDefault(KeyWeightConformity, 0.25)
	v.SetDefault(KeyDefaultTaxRate, 20.0)
	v.SetDefault(KeyDefaultCurrency, "MAD")
	v.SetDefault(KeyOrderAppendDraft, false)
	v.SetDefault(KeyEscalationCronSpec, "@hourly")
	v.SetDefault(KeyPublicFormBaseURL, "http://localhost:9000/cotation")

	v.SetEnvPrefix("FLUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	// Config file is optional; defaults plus env are enough to run.
	_ = v.ReadInConfig()

	return &Provider{v: v}
}

func (p *Provider) GetInt(key string) int {
	return p.v.GetInt(key)
}

func (p *Provider) GetFloat(key string) float64 {
	return p.v.GetFloat64(key)
}

func (p *Provider) GetString(key string) string {
	return p.v.GetString(key)
}

func (p *Provider) GetBool(key string) bool {
	return p.v.GetBool(key)
}

// ScoreWeights returns the comparison weights. Non-positive values (a partial
// or inconsistent override) fall back to the defaults rather than failing the
// scoring computation.
func (p *Provider) ScoreWeights() Weights {
	w := Weights{
		Price:      p.v.GetFloat64(KeyWeightPrice),
		Delay:      p.v.GetFloat64(KeyWeightDelay),
		Conformity: p.v.GetFloat64(KeyWeightConformity),
	}
	if w.Price <= 0 || w.Delay <= 0 || w.Conformity <= 0 {
		return Weights{Price: 0.40, Delay: 0.35, Conformity: 0.25}
	}
	return w
}
