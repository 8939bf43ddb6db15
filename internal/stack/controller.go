// Package stack drives the CloudFormation stack that provisions a
// vault's S3 bucket and KMS key: creating it on first use, polling until
// it settles, and updating it when the embedded template changes.
package stack

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/bignyap/cloudvault/internal/clients"
	"github.com/bignyap/cloudvault/internal/logger"
	"github.com/bignyap/cloudvault/internal/vaulterr"
)

const (
	pollMinInterval = 500 * time.Millisecond
	pollJitter      = 500 * time.Millisecond
)

// Controller manages the lifecycle of a single named CloudFormation
// stack.
type Controller struct {
	cf  clients.StackService
	log logger.Logger
}

// New constructs a Controller over an already-built CloudFormation
// client.
func New(cf clients.StackService, log logger.Logger) *Controller {
	if log == nil {
		log = logger.Noop()
	}
	return &Controller{cf: cf, log: log.WithComponent("stack")}
}

// NewFromAWSConfig builds a real CloudFormation client from cfg.
func NewFromAWSConfig(cfg aws.Config, log logger.Logger) *Controller {
	return New(cloudformation.NewFromConfig(cfg), log)
}

// Init ensures stackName exists, creating it from the embedded template
// if it doesn't, and polling until the stack reaches a terminal status.
func (c *Controller) Init(ctx context.Context, stackName string) (Outcome, Data, error) {
	corrID := uuid.New().String()
	log := c.log.WithFields(logger.String("correlation_id", corrID), logger.String("stack", stackName))

	found, data, err := c.describe(ctx, stackName)
	if err != nil {
		return "", Data{}, err
	}
	if found {
		switch {
		case data.Status == "":
			return "", Data{}, vaulterr.New(vaulterr.KindMissingStackStatus, "describe returned no status")
		case isGoodStatus(data.Status):
			log.Info("stack already exists", logger.String("status", data.Status))
			return OutcomeExists, data, nil
		case isBadStatus(data.Status):
			log.Warn("stack exists in failed state", logger.String("status", data.Status), logger.ErrorField(errors.New(data.StatusReason)))
			return OutcomeExistsWithFailedState, data, nil
		}
		return c.pollUntilTerminal(ctx, corrID, stackName)
	}

	log.Info("creating stack")
	_, err = c.cf.CreateStack(ctx, &cloudformation.CreateStackInput{
		StackName:          aws.String(stackName),
		TemplateBody:       aws.String(TemplateBody),
		Parameters:         []types.Parameter{{ParameterKey: aws.String("TemplateVersion"), ParameterValue: aws.String(TemplateVersion)}},
		Capabilities:       []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
		ClientRequestToken: aws.String(corrID),
	})
	if err != nil {
		return "", Data{}, vaulterr.Wrap(vaulterr.KindCreateStack, "create stack", err)
	}

	outcome, data, err := c.pollUntilTerminal(ctx, corrID, stackName)
	if err != nil {
		return "", Data{}, err
	}
	if outcome == OutcomeExists {
		outcome = OutcomeCreated
	}
	return outcome, data, nil
}

// Update compares the deployed stack's version output against
// TemplateVersion and, if the deployed version is older (numerically
// lower, or for non-numeric versions simply different), submits an
// UpdateStack call with the embedded template. The TemplateVersion
// parameter is passed with the new version; previous parameter values
// are not reused.
func (c *Controller) Update(ctx context.Context, stackName string) (UpdateOutcome, error) {
	corrID := uuid.New().String()
	log := c.log.WithFields(logger.String("correlation_id", corrID), logger.String("stack", stackName))

	found, data, err := c.describe(ctx, stackName)
	if err != nil {
		return UpdateOutcome{}, err
	}
	if !found {
		return UpdateOutcome{}, vaulterr.New(vaulterr.KindDescribeStack, "stack does not exist")
	}
	if data.Version == "" {
		return UpdateOutcome{}, vaulterr.New(vaulterr.KindStackVersionNotFound, "deployed stack has no version output")
	}
	if !versionLess(data.Version, TemplateVersion) {
		log.Info("stack already up to date", logger.String("version", data.Version))
		return UpdateOutcome{UpToDate: true, Previous: data.Version, New: TemplateVersion}, nil
	}

	log.Info("updating stack", logger.String("from", data.Version), logger.String("to", TemplateVersion))
	_, err = c.cf.UpdateStack(ctx, &cloudformation.UpdateStackInput{
		StackName:           aws.String(stackName),
		TemplateBody:        aws.String(TemplateBody),
		UsePreviousTemplate: aws.Bool(false),
		Parameters: []types.Parameter{
			{ParameterKey: aws.String("TemplateVersion"), ParameterValue: aws.String(TemplateVersion), UsePreviousValue: aws.Bool(false)},
		},
		Capabilities:       []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
		ClientRequestToken: aws.String(corrID),
	})
	if err != nil {
		return UpdateOutcome{}, vaulterr.Wrap(vaulterr.KindUpdateStack, "update stack", err)
	}

	if _, _, err := c.pollUntilTerminal(ctx, corrID, stackName); err != nil {
		return UpdateOutcome{}, err
	}
	return UpdateOutcome{UpToDate: false, Previous: data.Version, New: TemplateVersion}, nil
}

// Status describes the current state of stackName without mutating it.
func (c *Controller) Status(ctx context.Context, stackName string) (Data, error) {
	found, data, err := c.describe(ctx, stackName)
	if err != nil {
		return Data{}, err
	}
	if !found {
		return Data{}, vaulterr.New(vaulterr.KindDescribeStack, "stack does not exist")
	}
	return data, nil
}

// Describe is an alias of Status kept for symmetry with the CLI's
// "describe" subcommand naming.
func (c *Controller) Describe(ctx context.Context, stackName string) (Data, error) {
	return c.Status(ctx, stackName)
}

// DescribeBucketAndKey implements config.StackDescriber.
func (c *Controller) DescribeBucketAndKey(ctx context.Context, stackName string) (string, string, error) {
	data, err := c.Status(ctx, stackName)
	if err != nil {
		return "", "", err
	}
	if data.Bucket == "" || data.KeyArn == "" {
		return "", "", vaulterr.New(vaulterr.KindStackOutputsMissing, "stack outputs missing bucket or key arn")
	}
	return data.Bucket, data.KeyArn, nil
}

func (c *Controller) pollUntilTerminal(ctx context.Context, corrID, stackName string) (Outcome, Data, error) {
	log := c.log.WithFields(logger.String("correlation_id", corrID), logger.String("stack", stackName))
	start := time.Now()
	for {
		found, data, err := c.describe(ctx, stackName)
		if err != nil {
			return "", Data{}, err
		}
		if found {
			switch {
			case isGoodStatus(data.Status):
				log.Info("stack reached terminal status", logger.String("status", data.Status), logger.Duration("elapsed", time.Since(start)))
				return OutcomeExists, data, nil
			case isBadStatus(data.Status):
				log.Error("stack reached failed status", errors.New(data.StatusReason), logger.String("status", data.Status), logger.Duration("elapsed", time.Since(start)))
				return OutcomeFailed, data, nil
			}
		}
		log.Debug("polling stack status", logger.Any("data", data))

		select {
		case <-ctx.Done():
			return "", Data{}, ctx.Err()
		case <-time.After(pollMinInterval + time.Duration(rand.Int63n(int64(pollJitter)))):
		}
	}
}

func (c *Controller) describe(ctx context.Context, stackName string) (bool, Data, error) {
	out, err := c.cf.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stackName)})
	if err != nil {
		if isStackNotFound(err) {
			return false, Data{}, nil
		}
		return false, Data{}, vaulterr.Wrap(vaulterr.KindDescribeStack, "describe stack", err)
	}
	if len(out.Stacks) == 0 {
		return false, Data{}, nil
	}
	return true, toData(out.Stacks[0]), nil
}

func toData(s types.Stack) Data {
	d := Data{Status: string(s.StackStatus)}
	if s.StackStatusReason != nil {
		d.StatusReason = *s.StackStatusReason
	}
	for _, o := range s.Outputs {
		if o.OutputKey == nil || o.OutputValue == nil {
			continue
		}
		switch *o.OutputKey {
		case OutputBucketName:
			d.Bucket = *o.OutputValue
		case OutputKeyArn:
			d.KeyArn = *o.OutputValue
		case OutputVersion:
			d.Version = *o.OutputValue
		}
	}
	return d
}

func isGoodStatus(status string) bool {
	return clients.TerminalGoodStatuses[types.StackStatus(status)]
}

func isBadStatus(status string) bool {
	return clients.TerminalBadStatuses[types.StackStatus(status)]
}

// versionLess compares two template version strings numerically when
// both parse as integers, falling back to a simple inequality check
// otherwise (the format is an opaque string as far as the template is
// concerned; numeric ordering is the common case).
func versionLess(deployed, embedded string) bool {
	d, errD := strconv.Atoi(deployed)
	e, errE := strconv.Atoi(embedded)
	if errD == nil && errE == nil {
		return d < e
	}
	return deployed != embedded
}

// isStackNotFound reports whether err is CloudFormation's "stack does
// not exist" validation error, which the SDK surfaces as a generic
// ValidationError rather than a typed not-found error.
func isStackNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "ValidationError"
	}
	return false
}
