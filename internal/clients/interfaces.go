// Package clients defines narrow interfaces over the AWS SDK operations
// the vault core actually calls, mirroring the teacher's adapter-interface
// pattern (storage/api.StorageService, crypto/api.KMSProvider) so tests can
// substitute in-memory fakes instead of talking to AWS.
package clients

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ObjectStore is the subset of S3 operations the vault core uses.
type ObjectStore interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// KeyService is the subset of KMS operations the vault core uses.
type KeyService interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// StackService is the subset of CloudFormation operations the stack
// controller uses.
type StackService interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateStack(ctx context.Context, params *cloudformation.CreateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateStackOutput, error)
	UpdateStack(ctx context.Context, params *cloudformation.UpdateStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.UpdateStackOutput, error)
}

// IdentityService is the subset of STS operations used for bucket-name
// defaulting.
type IdentityService interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// TerminalGoodStatuses are CloudFormation stack statuses that mean the
// stack is usable.
var TerminalGoodStatuses = map[cftypes.StackStatus]bool{
	cftypes.StackStatusCreateComplete: true,
	cftypes.StackStatusUpdateComplete: true,
}

// TerminalBadStatuses are CloudFormation stack statuses that mean the
// stack provisioning or update has failed terminally.
var TerminalBadStatuses = map[cftypes.StackStatus]bool{
	cftypes.StackStatusCreateFailed:     true,
	cftypes.StackStatusUpdateFailed:     true,
	cftypes.StackStatusRollbackFailed:   true,
	cftypes.StackStatusRollbackComplete: true,
}
