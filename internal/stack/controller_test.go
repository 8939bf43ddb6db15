package stack_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bignyap/cloudvault/internal/stack"
)

type notFoundErr struct{ code string }

func (e notFoundErr) Error() string             { return e.code }
func (e notFoundErr) ErrorCode() string         { return e.code }
func (e notFoundErr) ErrorMessage() string      { return "not found" }
func (e notFoundErr) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// fakeCF is an in-memory CloudFormation stand-in that creates stacks
// already in CreateComplete state, so Init's poll loop resolves on the
// first describe.
type fakeCF struct {
	stacks map[string]types.Stack
}

func newFakeCF() *fakeCF {
	return &fakeCF{stacks: map[string]types.Stack{}}
}

func (f *fakeCF) DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error) {
	s, ok := f.stacks[*params.StackName]
	if !ok {
		return nil, notFoundErr{code: "ValidationError"}
	}
	return &cloudformation.DescribeStacksOutput{Stacks: []types.Stack{s}}, nil
}

func (f *fakeCF) CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error) {
	version := ""
	for _, p := range params.Parameters {
		if p.ParameterKey != nil && *p.ParameterKey == "TemplateVersion" && p.ParameterValue != nil {
			version = *p.ParameterValue
		}
	}
	f.stacks[*params.StackName] = types.Stack{
		StackName:   params.StackName,
		StackStatus: types.StackStatusCreateComplete,
		Outputs: []types.Output{
			{OutputKey: aws.String(stack.OutputBucketName), OutputValue: aws.String("bucket-1")},
			{OutputKey: aws.String(stack.OutputKeyArn), OutputValue: aws.String("arn:aws:kms:fake")},
			{OutputKey: aws.String(stack.OutputVersion), OutputValue: aws.String(version)},
		},
	}
	return &cloudformation.CreateStackOutput{}, nil
}

func (f *fakeCF) UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error) {
	s := f.stacks[*params.StackName]
	s.StackStatus = types.StackStatusUpdateComplete
	for i, o := range s.Outputs {
		if o.OutputKey != nil && *o.OutputKey == stack.OutputVersion {
			s.Outputs[i].OutputValue = aws.String(stack.TemplateVersion)
		}
	}
	f.stacks[*params.StackName] = s
	return &cloudformation.UpdateStackOutput{}, nil
}

func TestInit_CreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()
	cf := newFakeCF()
	c := stack.New(cf, nil)

	outcome, data, err := c.Init(ctx, "my-vault")
	require.NoError(t, err)
	assert.Equal(t, stack.OutcomeCreated, outcome)
	assert.Equal(t, "bucket-1", data.Bucket)
	assert.Equal(t, "arn:aws:kms:fake", data.KeyArn)
}

func TestInit_ReturnsExistsWhenAlreadyGood(t *testing.T) {
	ctx := context.Background()
	cf := newFakeCF()
	c := stack.New(cf, nil)

	_, _, err := c.Init(ctx, "my-vault")
	require.NoError(t, err)

	outcome, _, err := c.Init(ctx, "my-vault")
	require.NoError(t, err)
	assert.Equal(t, stack.OutcomeExists, outcome)
}

func TestInit_ExistsWithFailedState(t *testing.T) {
	ctx := context.Background()
	cf := newFakeCF()
	cf.stacks["broken"] = types.Stack{
		StackName:   aws.String("broken"),
		StackStatus: types.StackStatusCreateFailed,
	}
	c := stack.New(cf, nil)

	outcome, _, err := c.Init(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, stack.OutcomeExistsWithFailedState, outcome)
}

func TestUpdate_UpToDate(t *testing.T) {
	ctx := context.Background()
	cf := newFakeCF()
	c := stack.New(cf, nil)
	_, _, err := c.Init(ctx, "my-vault")
	require.NoError(t, err)

	result, err := c.Update(ctx, "my-vault")
	require.NoError(t, err)
	assert.True(t, result.UpToDate)
}

func TestDescribeBucketAndKey(t *testing.T) {
	ctx := context.Background()
	cf := newFakeCF()
	c := stack.New(cf, nil)
	_, _, err := c.Init(ctx, "my-vault")
	require.NoError(t, err)

	bucket, keyArn, err := c.DescribeBucketAndKey(ctx, "my-vault")
	require.NoError(t, err)
	assert.Equal(t, "bucket-1", bucket)
	assert.Equal(t, "arn:aws:kms:fake", keyArn)
}
