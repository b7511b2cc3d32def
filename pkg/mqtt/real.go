package mqtt

import (
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client      paho.Client
	topicPrefix string
}

// Options configures the broker connection.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Username    string
	Password    string
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(o Options) (*RealPublisher, error) {
	clientID := o.ClientID
	if clientID == "" {
		clientID = "ebbflood"
	}

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	prefix := o.TopicPrefix
	if prefix == "" {
		prefix = "ebbflood"
	}

	return &RealPublisher{
		client:      client,
		topicPrefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

// PublishPhase sends a phase transition event to the broker.
func (p *RealPublisher) PublishPhase(event PhaseEvent) error {
	payload, err := FormatPhasePayload(event)
	if err != nil {
		return fmt.Errorf("format phase payload: %w", err)
	}

	// QoS 0, phase events are transient
	topic := p.topicPrefix + "/" + event.ControllerID + "/phase"
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	return nil
}

// PublishStatistics sends a statistics snapshot to the broker.
func (p *RealPublisher) PublishStatistics(event StatisticsEvent) error {
	payload, err := FormatStatisticsPayload(event)
	if err != nil {
		return fmt.Errorf("format statistics payload: %w", err)
	}

	// QoS 1 and retained so dashboards pick up the last cycle after
	// reconnecting.
	topic := p.topicPrefix + "/" + event.ControllerID + "/statistics"
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish statistics timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish statistics: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000)
	return nil
}
