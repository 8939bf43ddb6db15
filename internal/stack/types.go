package stack

// Params is the in-memory projection of the provisioning outputs a Vault
// needs to operate: bucket name and key ARN, plus the stack name they
// came from.
type Params struct {
	StackName string
	Bucket    string
	KeyArn    string
}

// Data is a snapshot of the stack's lifecycle as seen on a describe/poll.
// Fields reflect whatever CloudFormation currently reports; any of them
// may be unset depending on the stack's state.
type Data struct {
	Bucket       string
	KeyArn       string
	Version      string
	Status       string
	StatusReason string
}

// Outcome is the terminal result of Init.
type Outcome string

const (
	OutcomeExists                Outcome = "exists"
	OutcomeExistsWithFailedState Outcome = "exists_with_failed_state"
	OutcomeCreated               Outcome = "created"
	OutcomeFailed                Outcome = "failed"
)

// UpdateOutcome is the terminal result of Update.
type UpdateOutcome struct {
	UpToDate bool
	Previous string
	New      string
}

// OutputBucketName, OutputKeyArn and OutputVersion are the CloudFormation
// stack output keys the core reads from, reproduced verbatim from the
// external interface contract.
const (
	OutputBucketName = "vaultBucketName"
	OutputKeyArn     = "kmsKeyArn"
	OutputVersion    = "vaultStackVersion"
)

// TemplateVersion is the template version this build deploys. It is
// passed as template.yaml's TemplateVersion parameter, which the stack
// echoes back as OutputVersion. Update() compares a deployed stack's
// OutputVersion against this constant to decide whether an UpdateStack
// call is needed.
const TemplateVersion = "3"
