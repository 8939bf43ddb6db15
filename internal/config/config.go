// Package config resolves Vault construction parameters (stack name,
// bucket, key ARN, prefix, region) from explicit arguments, environment
// variables, and — as a last resort for bucket/key — the provisioned
// CloudFormation stack's outputs.
package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/bignyap/cloudvault/internal/clients"
	"github.com/bignyap/cloudvault/internal/vaulterr"
)

// Env var names, reproduced verbatim from the external interface contract.
const (
	EnvStack  = "VAULT_STACK"
	EnvBucket = "VAULT_BUCKET"
	EnvKey    = "VAULT_KEY"
	EnvPrefix = "VAULT_PREFIX"
	EnvRegion = "AWS_REGION"
)

// DefaultStackName is used when neither an argument nor VAULT_STACK is set.
const DefaultStackName = "vault"

// Args carries the explicit, caller-supplied construction arguments. Any
// field left as its zero value falls through to environment/default
// resolution.
type Args struct {
	StackName string
	Region    string
	Bucket    string
	KeyArn    string
	Prefix    string
}

// Params is the resolved configuration a Vault is constructed from.
type Params struct {
	StackName string
	Region    string
	Bucket    string
	KeyArn    string
	Prefix    string
}

// StackDescriber is satisfied by anything that can resolve bucket/key-arn
// from a CloudFormation stack's outputs — implemented by
// internal/stack.Controller, kept as an interface here to avoid an import
// cycle between config and stack.
type StackDescriber interface {
	DescribeBucketAndKey(ctx context.Context, stackName string) (bucket, keyArn string, err error)
}

// Resolve applies the precedence chain from the spec: explicit argument →
// environment variable → default, and only falls back to describing the
// CloudFormation stack for bucket/key if either is still unset afterwards.
func Resolve(ctx context.Context, args Args, describer StackDescriber) (Params, error) {
	stackName := firstNonEmpty(args.StackName, os.Getenv(EnvStack), DefaultStackName)

	prefix := firstNonEmpty(args.Prefix, os.Getenv(EnvPrefix), "")
	prefix = normalizePrefix(prefix)

	bucket := firstNonEmpty(args.Bucket, os.Getenv(EnvBucket), "")
	keyArn := firstNonEmpty(args.KeyArn, os.Getenv(EnvKey), "")

	if (bucket == "" || keyArn == "") && describer != nil {
		describedBucket, describedKeyArn, err := describer.DescribeBucketAndKey(ctx, stackName)
		if err != nil {
			return Params{}, err
		}
		if bucket == "" {
			bucket = describedBucket
		}
		if keyArn == "" {
			keyArn = describedKeyArn
		}
	}

	return Params{
		StackName: stackName,
		Region:    args.Region,
		Bucket:    bucket,
		KeyArn:    keyArn,
		Prefix:    prefix,
	}, nil
}

// normalizePrefix ensures prefix is either empty or ends with "/".
func normalizePrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadAWSConfig resolves the AWS SDK config, trying the explicit region
// first before falling back to the standard provider chain. accessKeyID
// and secretAccessKey are optional; when both are set they take priority
// over the default credential chain, mirroring the teacher's S3 adapter.
func LoadAWSConfig(ctx context.Context, explicitRegion, accessKeyID, secretAccessKey string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if explicitRegion != "" {
		opts = append(opts, awsconfig.WithRegion(explicitRegion))
	}
	if accessKeyID != "" && secretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, vaulterr.Wrap(vaulterr.KindNoRegion, "load AWS config", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, vaulterr.New(vaulterr.KindNoRegion, "no AWS region resolved")
	}
	return cfg, nil
}

// ResolveBucketName derives a default bucket name of the form
// "{stackName}-{region}-{accountID}" using STS GetCallerIdentity.
func ResolveBucketName(ctx context.Context, identity clients.IdentityService, stackName, region string) (string, error) {
	accountID, err := callerAccountID(ctx, identity)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", stackName, region, accountID), nil
}

func callerAccountID(ctx context.Context, identity clients.IdentityService) (string, error) {
	out, err := identity.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", vaulterr.Wrap(vaulterr.KindCallerID, "get caller identity", err)
	}
	if out.Account == nil || *out.Account == "" {
		return "", vaulterr.New(vaulterr.KindMissingAccountID, "caller identity response missing account id")
	}
	return *out.Account, nil
}
