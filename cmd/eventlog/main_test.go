package main

import (
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogEvent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handle := logEvent(zap.New(core).Sugar())

	err := handle(amqp.Delivery{Body: []byte(`{"type":"item.moved","user_id":3,"box_id":9,"from_box_id":4,"item_id":12,"name":"Tent"}`)})
	assert.NoError(t, err)
	err = handle(amqp.Delivery{Body: []byte(`not json`)})
	assert.NoError(t, err)

	entries := logs.All()
	if assert.Len(t, entries, 2) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "inventory event", entries[0].Message)
		assert.Equal(t, "item.moved", fields["type"])
		assert.EqualValues(t, 4, fields["from_box_id"])
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	}
}
