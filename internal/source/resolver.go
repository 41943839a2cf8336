// Package source locates the feedback bucket and reads feedback objects
// from it.
package source

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"go.uber.org/zap"
)

// BucketEnvVar is consulted when no bucket is given explicitly.
const BucketEnvVar = "FEEDBACK_BUCKET_NAME"

// StackDescriber is the subset of the CloudFormation client used for the
// stack-output lookup.
type StackDescriber interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// Resolver determines the bucket name: explicit value, then environment,
// then the deployed stack's outputs.
type Resolver struct {
	stacks    StackDescriber
	stackName string
	outputKey string
	getenv    func(string) string
	logger    *zap.Logger
}

// NewResolver creates a resolver. stacks may be nil, which disables the
// CloudFormation fallback.
func NewResolver(stacks StackDescriber, stackName, outputKey string, logger *zap.Logger) *Resolver {
	return &Resolver{
		stacks:    stacks,
		stackName: stackName,
		outputKey: outputKey,
		getenv:    os.Getenv,
		logger:    logger,
	}
}

// Resolve returns the bucket name and whether one was found. Lookup errors
// are logged and reported as not found.
func (r *Resolver) Resolve(ctx context.Context, explicit string) (string, bool) {
	if explicit != "" {
		r.logger.Debug("Using explicit bucket name", zap.String("bucket", explicit))
		return explicit, true
	}

	if name := r.getenv(BucketEnvVar); name != "" {
		r.logger.Debug("Using bucket name from environment",
			zap.String("variable", BucketEnvVar),
			zap.String("bucket", name))
		return name, true
	}

	if r.stacks == nil {
		return "", false
	}
	return r.fromStackOutputs(ctx)
}

func (r *Resolver) fromStackOutputs(ctx context.Context) (string, bool) {
	out, err := r.stacks.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(r.stackName),
	})
	if err != nil {
		r.logger.Warn("Stack output lookup failed",
			zap.String("stack", r.stackName),
			zap.Error(err))
		return "", false
	}
	if len(out.Stacks) == 0 {
		r.logger.Warn("Stack not found", zap.String("stack", r.stackName))
		return "", false
	}

	for _, output := range out.Stacks[0].Outputs {
		if aws.ToString(output.OutputKey) != r.outputKey {
			continue
		}
		name := aws.ToString(output.OutputValue)
		if name == "" {
			break
		}
		r.logger.Debug("Using bucket name from stack output",
			zap.String("stack", r.stackName),
			zap.String("output", r.outputKey),
			zap.String("bucket", name))
		return name, true
	}

	r.logger.Warn("Stack has no bucket output",
		zap.String("stack", r.stackName),
		zap.String("output", r.outputKey))
	return "", false
}
