// Package eventpublisher delivers survey audit events.
//
// KafkaPublisher writes JSON events to a topic keyed by survey id so events of
// one survey stay ordered on a single partition. NoopPublisher is used when no
// brokers are configured.
package eventpublisher
