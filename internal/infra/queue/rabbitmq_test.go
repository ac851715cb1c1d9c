package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

type fakeAcknowledger struct {
	acks        int
	nacks       int
	lastRequeue bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.lastRequeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacks++
	f.lastRequeue = requeue
	return nil
}

func TestAckForSuccess(t *testing.T) {
	fake := &fakeAcknowledger{}
	ack := ackFor(amqp.Delivery{Acknowledger: fake})
	if err := ack(true); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fake.acks != 1 || fake.nacks != 0 {
		t.Fatalf("успех должен подтверждать доставку: acks=%d nacks=%d", fake.acks, fake.nacks)
	}
}

func TestAckForFailureRequeuesFirstDelivery(t *testing.T) {
	fake := &fakeAcknowledger{}
	ack := ackFor(amqp.Delivery{Acknowledger: fake, Redelivered: false})
	if err := ack(false); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fake.nacks != 1 || !fake.lastRequeue {
		t.Fatalf("первая неудача должна возвращать задачу в очередь: nacks=%d requeue=%v", fake.nacks, fake.lastRequeue)
	}
}

func TestAckForFailureDropsRedelivered(t *testing.T) {
	fake := &fakeAcknowledger{}
	ack := ackFor(amqp.Delivery{Acknowledger: fake, Redelivered: true})
	if err := ack(false); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if fake.nacks != 1 || fake.lastRequeue {
		t.Fatalf("повторная неудача должна отбрасывать задачу: nacks=%d requeue=%v", fake.nacks, fake.lastRequeue)
	}
}
