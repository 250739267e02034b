package stripe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79/webhook"
)

const chargeEvent = `{"id":"evt_1","object":"event","type":"charge.succeeded","account":"acct_1",
"data":{"object":{"id":"ch_1","object":"charge","customer":"cus_1"}}}`

func TestWebhookDecoder_Verify(t *testing.T) {
	d := NewWebhookDecoder()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(chargeEvent),
		Secret:  "whsec_test",
	})

	assert.True(t, d.Verify(signed.Payload, signed.Header, "whsec_test"))
	assert.False(t, d.Verify(signed.Payload, signed.Header, "whsec_other"))
	assert.False(t, d.Verify(signed.Payload, "", "whsec_test"))
	assert.False(t, d.Verify(signed.Payload, "t=1,v1=deadbeef", "whsec_test"))
}

func TestWebhookDecoder_Decode(t *testing.T) {
	d := NewWebhookDecoder()

	ev, err := d.Decode([]byte(chargeEvent))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, "charge.succeeded", ev.Type)
	assert.Equal(t, "acct_1", ev.AccountID)
	assert.Equal(t, "ch_1", ev.ObjectID)
	assert.Equal(t, "cus_1", ev.CustomerID)

	ev, err = d.Decode([]byte(`{"id":"evt_2","type":"customer.created","data":{"object":{"id":"cus_9","object":"customer"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "cus_9", ev.CustomerID)
	assert.Empty(t, ev.AccountID)
}
