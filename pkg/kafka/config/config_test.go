package kafka_config

import (
	"strings"
	"testing"
)

func TestFromEnv_DisabledWithoutBrokers(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "")

	cfg := FromEnv()
	if cfg.Enabled() {
		t.Errorf("expected publishing disabled, brokers=%v", cfg.Brokers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Brokers(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "kafka-1:9092, kafka-2:9092,")

	cfg := FromEnv()
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", cfg.Brokers)
	}
}

func TestValidate(t *testing.T) {
	cfg := FromEnv()
	cfg.ProducerCompression = "brotli"
	cfg.ProducerRequireAcks = 2
	cfg.ConsumerGroupID = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"ProducerCompression", "ProducerRequireAcks", "ConsumerGroupID"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %s in %v", want, err)
		}
	}
}
