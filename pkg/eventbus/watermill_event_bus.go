package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/Concave-Streak/WorkflowEngine/pkg/events"
	"github.com/Concave-Streak/WorkflowEngine/pkg/otelhelper"
)

type WatermillEventBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]EventHandler
	tracer        trace.Tracer
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]EventHandler),
		// The global provider is a noop until a binary installs the SDK,
		// so spans cost nothing when tracing is disabled.
		tracer: otel.Tracer("github.com/Concave-Streak/WorkflowEngine/pkg/eventbus"),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))

	return eb.publisher.Publish(events.Topic, msg)
}

func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	handler, exists := eb.subscriptions[eventType]
	if !exists {
		msg.Ack()

		return
	}

	msgCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.MapCarrier(msg.Metadata))

	msgCtx, span := otelhelper.StartSpan(msgCtx, eb.tracer, "eventbus consume",
		attribute.String("event.type", string(eventType)),
		attribute.String(otelhelper.EventIDKey, msg.UUID),
	)
	defer span.End()

	event, err := newEvent(eventType)
	if err != nil {
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	if err := json.Unmarshal(msg.Payload, event); err != nil {
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	if err := handler(msgCtx, event); err != nil {
		otelhelper.SetError(span, err)
		msg.Nack()

		return
	}

	span.AddEvent("event_handled")
	msg.Ack()
}

func newEvent(eventType events.EventType) (any, error) {
	switch eventType {
	case events.DefinitionCreatedEvent:
		return &events.DefinitionCreated{}, nil
	case events.InstanceStartedEvent:
		return &events.InstanceStarted{}, nil
	case events.TransitionExecutedEvent:
		return &events.TransitionExecuted{}, nil
	case events.TransitionFailedEvent:
		return &events.TransitionFailed{}, nil
	case events.ScheduleTriggeredEvent:
		return &events.ScheduleTriggered{}, nil
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.subscriptions[eventType] = handler

	return nil
}

func (eb *WatermillEventBus) Close() error {
	err := eb.publisher.Close()
	if err != nil {
		return err
	}

	return eb.subscriber.Close()
}
