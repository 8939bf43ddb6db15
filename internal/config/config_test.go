package config_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/bignyap/cloudvault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDescriber struct {
	bucket, keyArn string
	err            error
	calls          int
}

func (f *fakeDescriber) DescribeBucketAndKey(ctx context.Context, stackName string) (string, string, error) {
	f.calls++
	return f.bucket, f.keyArn, f.err
}

func clearVaultEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{config.EnvStack, config.EnvBucket, config.EnvKey, config.EnvPrefix} {
		t.Setenv(k, "")
	}
}

func TestResolve_ExplicitArgsSkipDescribe(t *testing.T) {
	clearVaultEnv(t)
	describer := &fakeDescriber{bucket: "should-not-be-used", keyArn: "should-not-be-used"}

	params, err := config.Resolve(context.Background(), config.Args{
		Bucket: "my-bucket",
		KeyArn: "arn:aws:kms:key",
	}, describer)
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", params.Bucket)
	assert.Equal(t, "arn:aws:kms:key", params.KeyArn)
	assert.Equal(t, 0, describer.calls)
	assert.Equal(t, config.DefaultStackName, params.StackName)
}

func TestResolve_FallsBackToStackDescribe(t *testing.T) {
	clearVaultEnv(t)
	describer := &fakeDescriber{bucket: "stack-bucket", keyArn: "stack-key-arn"}

	params, err := config.Resolve(context.Background(), config.Args{}, describer)
	require.NoError(t, err)
	assert.Equal(t, "stack-bucket", params.Bucket)
	assert.Equal(t, "stack-key-arn", params.KeyArn)
	assert.Equal(t, 1, describer.calls)
}

func TestResolve_EnvVarsOverrideDefaults(t *testing.T) {
	clearVaultEnv(t)
	t.Setenv(config.EnvStack, "prod-vault")
	t.Setenv(config.EnvPrefix, "team")

	describer := &fakeDescriber{bucket: "b", keyArn: "k"}
	params, err := config.Resolve(context.Background(), config.Args{}, describer)
	require.NoError(t, err)
	assert.Equal(t, "prod-vault", params.StackName)
	assert.Equal(t, "team/", params.Prefix)
}

func TestResolve_PrefixNormalisation(t *testing.T) {
	clearVaultEnv(t)
	describer := &fakeDescriber{bucket: "b", keyArn: "k"}

	withoutSlash, err := config.Resolve(context.Background(), config.Args{Prefix: "team"}, describer)
	require.NoError(t, err)

	withSlash, err := config.Resolve(context.Background(), config.Args{Prefix: "team/"}, describer)
	require.NoError(t, err)

	assert.Equal(t, withoutSlash.Prefix, withSlash.Prefix)
	assert.Equal(t, "team/", withoutSlash.Prefix)
}

type fakeIdentity struct {
	account string
}

func (f *fakeIdentity) GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	return &sts.GetCallerIdentityOutput{Account: &f.account}, nil
}

func TestResolveBucketName(t *testing.T) {
	identity := &fakeIdentity{account: "123456789012"}
	name, err := config.ResolveBucketName(context.Background(), identity, "vault", "eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "vault-eu-west-1-123456789012", name)
}
