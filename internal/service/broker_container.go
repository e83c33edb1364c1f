package service

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	kafkamod "github.com/testcontainers/testcontainers-go/modules/kafka"

	"clnrmgo/internal/cache"
)

// BrokerContainerPlugin starts a Kafka broker via testcontainers'
// kafka module (KRaft mode, no ZooKeeper) and health-checks it by
// dialing the broker with kafka-go.
type BrokerContainerPlugin struct {
	spec  Spec
	cache *cache.ContainerCache
}

// NewBrokerContainerPlugin builds a broker plugin for spec.
func NewBrokerContainerPlugin(spec Spec, containerCache *cache.ContainerCache) *BrokerContainerPlugin {
	return &BrokerContainerPlugin{spec: spec, cache: containerCache}
}

func (p *BrokerContainerPlugin) Name() string { return p.spec.Alias }

func (p *BrokerContainerPlugin) Start(ctx context.Context) (Handle, error) {
	c, err := p.cache.GetOrCreate(ctx, p.spec.Alias, p.startContainer)
	if err != nil {
		return Handle{}, fmt.Errorf("broker container %q: %w", p.spec.Alias, err)
	}

	kc, ok := c.(tcAdapter).Container.(*kafkamod.KafkaContainer)
	if !ok {
		return Handle{}, fmt.Errorf("broker container %q: cached container is not kafka", p.spec.Alias)
	}

	brokers, err := kc.Brokers(ctx)
	if err != nil || len(brokers) == 0 {
		return Handle{}, fmt.Errorf("broker container %q: resolve brokers: %w", p.spec.Alias, err)
	}

	return Handle{
		ID:          c.ID(),
		ServiceName: p.spec.Alias,
		Metadata:    map[string]string{"image": p.spec.Image, "broker": brokers[0]},
	}, nil
}

func (p *BrokerContainerPlugin) startContainer(ctx context.Context, _ string) (cache.Container, error) {
	image := p.spec.Image
	if image == "" {
		image = "confluentinc/confluent-local:7.6.0"
	}

	c, err := kafkamod.Run(ctx, image, kafkamod.WithClusterID("cleanroom"))
	if err != nil {
		return nil, fmt.Errorf("start kafka container: %w", err)
	}

	return tcAdapter{c}, nil
}

func (p *BrokerContainerPlugin) Stop(context.Context, Handle) error {
	return nil
}

func (p *BrokerContainerPlugin) HealthCheck(ctx context.Context, handle Handle) (HealthStatus, error) {
	broker := handle.Metadata["broker"]
	if broker == "" {
		return Unhealthy, fmt.Errorf("health check %q: no broker address on handle", p.spec.Alias)
	}

	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	conn, err := kafkago.DialContext(dialCtx, "tcp", broker)
	if err != nil {
		return Unhealthy, nil
	}
	defer conn.Close()

	if _, err := conn.Brokers(); err != nil {
		return Unhealthy, nil
	}

	return Healthy, nil
}
