package bus

import (
	"fmt"
	"strings"

	"github.com/ricesearch/evalkit/internal/config"
	"github.com/ricesearch/evalkit/internal/pkg/errors"
	"github.com/ricesearch/evalkit/internal/pkg/logger"
)

// NewBus creates a new Bus instance based on the configuration, rate limited
// when cfg.RateLimit is set.
func NewBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	b, err := newBus(cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.RateLimit > 0 {
		return NewRateLimitedBus(b, cfg.RateLimit, cfg.Burst), nil
	}
	return b, nil
}

func newBus(cfg config.BusConfig, log *logger.Logger) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(log), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:  brokers,
			ClientID: cfg.ClientID,
			Version:  cfg.KafkaVersion,
		})

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
