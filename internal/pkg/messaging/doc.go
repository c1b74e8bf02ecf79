// Package messaging provides a broker-agnostic API for publishing and
// consuming messages over NSQ, Kafka, NATS and Google Pub/Sub.
//
// Drivers expose the raw broker semantics: a handler gets a Message with its
// headers and decides when to Ack. Delivery sits on top of any driver and adds
// envelope ids, a retry counter carried in the x-retry header, delayed
// requeue, and dead-lettering to "<topic>_dead_letter" once retries run out.
package messaging
