package narrative

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"

	"github.com/gyaneshwarpardhi/kycguard/internal/config"
)

func TestFromConfig(t *testing.T) {
	ctx := context.Background()
	nc := config.NarrativeConf{Provider: ProviderOpenAI, Model: "gpt-4o-mini", APIKeyEnv: "KYC_TEST_OPENAI_KEY"}
	nc.Breaker = config.BreakerConf{FailureThreshold: 3, SuccessThreshold: 1, CooldownMs: 1000}

	ex, release := FromConfig(ctx, nc, discard())
	assert.Nil(t, ex, "disabled")
	release()

	nc.Enabled = true
	t.Setenv("KYC_TEST_OPENAI_KEY", "")
	ex, _ = FromConfig(ctx, nc, discard())
	assert.Nil(t, ex, "no api key")

	t.Setenv("KYC_TEST_OPENAI_KEY", "sk-test")
	ex, _ = FromConfig(ctx, nc, discard())
	assert.IsType(t, &GuardedExtractor{}, ex)

	mr := miniredis.RunT(t)
	nc.Cache = config.CacheConf{Enabled: true, Addr: mr.Addr(), TTLSeconds: 60}
	ex, release = FromConfig(ctx, nc, discard())
	defer release()
	assert.IsType(t, &CachingExtractor{}, ex)
}
