package source

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func stackOutputs(outputs map[string]string) *cloudformation.DescribeStacksOutput {
	stack := cftypes.Stack{StackName: aws.String("VTT-Feedback")}
	for k, v := range outputs {
		stack.Outputs = append(stack.Outputs, cftypes.Output{OutputKey: aws.String(k), OutputValue: aws.String(v)})
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []cftypes.Stack{stack}}
}

func newTestResolver(stacks StackDescriber, env map[string]string, logger *zap.Logger) *Resolver {
	r := NewResolver(stacks, "VTT-Feedback", "FeedbackBucketName", logger)
	r.getenv = func(k string) string { return env[k] }
	return r
}

func forStack(name string) interface{} {
	return mock.MatchedBy(func(in *cloudformation.DescribeStacksInput) bool {
		return aws.ToString(in.StackName) == name
	})
}

func TestResolver_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		explicit string
		env      map[string]string
		stack    *cloudformation.DescribeStacksOutput
		want     string
		found    bool
	}{
		{
			name:     "explicit wins",
			explicit: "flag-bucket",
			env:      map[string]string{BucketEnvVar: "env-bucket"},
			want:     "flag-bucket",
			found:    true,
		},
		{
			name:  "environment before stack",
			env:   map[string]string{BucketEnvVar: "env-bucket"},
			want:  "env-bucket",
			found: true,
		},
		{
			name: "stack output",
			stack: stackOutputs(map[string]string{
				"FeedbackBucketArn":  "arn:aws:s3:::vtt-feedback-1-us-east-1",
				"FeedbackBucketName": "vtt-feedback-1-us-east-1",
			}),
			want:  "vtt-feedback-1-us-east-1",
			found: true,
		},
		{
			name:  "stack without output",
			stack: stackOutputs(map[string]string{"FeedbackBucketArn": "arn"}),
		},
		{
			name:  "empty stack list",
			stack: &cloudformation.DescribeStacksOutput{},
		},
		{
			name:  "empty output value",
			stack: stackOutputs(map[string]string{"FeedbackBucketName": ""}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stacks := new(MockStackDescriber)
			if tt.stack != nil {
				stacks.On("DescribeStacks", mock.Anything, forStack("VTT-Feedback")).Return(tt.stack, nil).Once()
			}

			r := newTestResolver(stacks, tt.env, zap.NewNop())
			got, found := r.Resolve(context.Background(), tt.explicit)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.found, found)
			if tt.stack == nil {
				stacks.AssertNotCalled(t, "DescribeStacks", mock.Anything, mock.Anything)
			} else {
				stacks.AssertExpectations(t)
			}
		})
	}
}

func TestResolver_LookupErrorIsSwallowed(t *testing.T) {
	stacks := new(MockStackDescriber)
	stacks.On("DescribeStacks", mock.Anything, mock.Anything).
		Return(nil, errors.New("Stack with id VTT-Feedback does not exist")).Once()

	core, logs := observer.New(zapcore.WarnLevel)
	r := newTestResolver(stacks, nil, zap.New(core))

	got, found := r.Resolve(context.Background(), "")

	assert.False(t, found)
	assert.Empty(t, got)
	assert.Equal(t, 1, logs.FilterMessage("Stack output lookup failed").Len())
}

func TestResolver_NoStackClient(t *testing.T) {
	r := newTestResolver(nil, nil, zap.NewNop())

	got, found := r.Resolve(context.Background(), "")
	assert.False(t, found)
	assert.Empty(t, got)
}
