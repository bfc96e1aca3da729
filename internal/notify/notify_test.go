package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	got *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.got = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSESLeadCaptured(t *testing.T) {
	fake := &fakeSES{}
	n := &SES{client: fake, from: "bot@example.com", to: "owner@example.com"}

	require.NoError(t, n.LeadCaptured(context.Background(), "a@b.com"))
	require.NotNil(t, fake.got)
	assert.Equal(t, "bot@example.com", aws.ToString(fake.got.Source))
	assert.Equal(t, []string{"owner@example.com"}, fake.got.Destination.ToAddresses)
	assert.Contains(t, aws.ToString(fake.got.Message.Body.Text.Data), "a@b.com")
}

func TestSESLeadCapturedError(t *testing.T) {
	n := &SES{client: &fakeSES{err: errors.New("throttled")}, from: "f", to: "t"}
	err := n.LeadCaptured(context.Background(), "a@b.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.LeadCaptured(context.Background(), "a@b.com"))
}
