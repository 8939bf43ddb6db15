// Package cli wires the vault and stack packages into a runnable
// command-line tool: one subcommand per operation named in the external
// interface, with the resolved bucket/key-arn/prefix/region flowing
// through internal/config's precedence chain.
package cli

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/urfave/cli/v2"

	"github.com/bignyap/cloudvault/internal/config"
	"github.com/bignyap/cloudvault/internal/logger"
	"github.com/bignyap/cloudvault/internal/stack"
	"github.com/bignyap/cloudvault/internal/value"
	"github.com/bignyap/cloudvault/internal/vaulterr"
	"github.com/bignyap/cloudvault/vault"
)

// Defaults carries fallback values sourced from the environment before
// urfave/cli ever looks at flags, letting an operator pin a stack/region
// once in the process environment instead of repeating
// --vault-stack/--region on every invocation.
type Defaults struct {
	VaultStack      string `env:"VAULT_STACK"`
	Region          string `env:"AWS_REGION"`
	Bucket          string `env:"VAULT_BUCKET"`
	KeyArn          string `env:"VAULT_KEY"`
	Prefix          string `env:"VAULT_PREFIX"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

// NewApp builds the urfave/cli application. defaults seeds flag default
// values; flags and env vars both still override them.
func NewApp(defaults Defaults) *cli.App {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "bucket", Aliases: []string{"b"}, Value: defaults.Bucket, EnvVars: []string{config.EnvBucket}},
		&cli.StringFlag{Name: "key-arn", Aliases: []string{"k"}, Value: defaults.KeyArn, EnvVars: []string{config.EnvKey}},
		&cli.StringFlag{Name: "prefix", Aliases: []string{"p"}, Value: defaults.Prefix, EnvVars: []string{config.EnvPrefix}},
		&cli.StringFlag{Name: "region", Aliases: []string{"r"}, Value: defaults.Region, EnvVars: []string{config.EnvRegion}},
		&cli.StringFlag{Name: "vault-stack", Value: defaults.VaultStack, EnvVars: []string{config.EnvStack}},
		&cli.StringFlag{Name: "access-key-id", Value: defaults.AccessKeyID, EnvVars: []string{"AWS_ACCESS_KEY_ID"}},
		&cli.StringFlag{Name: "secret-access-key", Value: defaults.SecretAccessKey, EnvVars: []string{"AWS_SECRET_ACCESS_KEY"}},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}},
	}

	app := &cli.App{
		Name:  "vault",
		Usage: "store, retrieve, and manage secrets sealed with AES-256-GCM and AWS KMS",
		Flags: flags,
		Commands: []*cli.Command{
			initCommand(),
			updateCommand(),
			statusCommand(),
			describeCommand(),
			idCommand(),
			infoCommand(),
			storeCommand(),
			lookupCommand(),
			existsCommand(),
			deleteCommand(),
			allCommand(),
			encryptCommand(),
			decryptCommand(),
		},
	}
	return app
}

// session bundles the resolved clients a command needs. Built lazily per
// invocation so commands that only touch the stack controller (init,
// update, status) never have to resolve a bucket that may not exist yet.
type session struct {
	params config.Params
	log    logger.Logger
}

func newSession(c *cli.Context, describer config.StackDescriber) (session, error) {
	log := logger.NewZerolog(logger.Config{Level: "warn"})
	params, err := config.Resolve(c.Context, config.Args{
		StackName: c.String("vault-stack"),
		Region:    c.String("region"),
		Bucket:    c.String("bucket"),
		KeyArn:    c.String("key-arn"),
		Prefix:    c.String("prefix"),
	}, describer)
	if err != nil {
		return session{}, err
	}
	return session{params: params, log: log}, nil
}

func buildVault(c *cli.Context) (*vault.Vault, config.Params, error) {
	awsCfg, err := config.LoadAWSConfig(c.Context, c.String("region"), c.String("access-key-id"), c.String("secret-access-key"))
	if err != nil {
		return nil, config.Params{}, err
	}
	ctrl := stack.NewFromAWSConfig(awsCfg, nil)
	sess, err := newSession(c, ctrl)
	if err != nil {
		return nil, config.Params{}, err
	}
	return vault.NewFromAWSConfig(awsCfg, sess.params, sess.log), sess.params, nil
}

func buildController(c *cli.Context) (*stack.Controller, string, error) {
	awsCfg, err := config.LoadAWSConfig(c.Context, c.String("region"), c.String("access-key-id"), c.String("secret-access-key"))
	if err != nil {
		return nil, "", err
	}
	stackName := c.String("vault-stack")
	if stackName == "" {
		stackName = config.DefaultStackName
	}
	return stack.NewFromAWSConfig(awsCfg, nil), stackName, nil
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create the vault's CloudFormation stack if it doesn't already exist",
		Action: func(c *cli.Context) error {
			ctrl, stackName, err := buildController(c)
			if err != nil {
				return err
			}
			outcome, data, err := ctrl.Init(c.Context, stackName)
			if err != nil {
				return err
			}
			printf(c, "%s bucket=%s key_arn=%s\n", outcome, data.Bucket, data.KeyArn)
			return nil
		},
	}
}

func updateCommand() *cli.Command {
	return &cli.Command{
		Name:  "update",
		Usage: "update the vault's CloudFormation stack if its template version changed",
		Action: func(c *cli.Context) error {
			ctrl, stackName, err := buildController(c)
			if err != nil {
				return err
			}
			outcome, err := ctrl.Update(c.Context, stackName)
			if err != nil {
				return err
			}
			if outcome.UpToDate {
				printf(c, "up to date (version %s)\n", outcome.Previous)
			} else {
				printf(c, "updated %s -> %s\n", outcome.Previous, outcome.New)
			}
			return nil
		},
	}
}

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "print the vault stack's CloudFormation status",
		Action: func(c *cli.Context) error {
			ctrl, stackName, err := buildController(c)
			if err != nil {
				return err
			}
			data, err := ctrl.Status(c.Context, stackName)
			if err != nil {
				return err
			}
			printf(c, "status=%s version=%s\n", data.Status, data.Version)
			return nil
		},
	}
}

func describeCommand() *cli.Command {
	return &cli.Command{
		Name:  "describe",
		Usage: "print the vault stack's resolved outputs",
		Action: func(c *cli.Context) error {
			ctrl, stackName, err := buildController(c)
			if err != nil {
				return err
			}
			data, err := ctrl.Describe(c.Context, stackName)
			if err != nil {
				return err
			}
			printf(c, "bucket=%s key_arn=%s version=%s\n", data.Bucket, data.KeyArn, data.Version)
			return nil
		},
	}
}

func idCommand() *cli.Command {
	return &cli.Command{
		Name:  "id",
		Usage: "print the default bucket name derived from stack name, region, and caller account id",
		Action: func(c *cli.Context) error {
			awsCfg, err := config.LoadAWSConfig(c.Context, c.String("region"), c.String("access-key-id"), c.String("secret-access-key"))
			if err != nil {
				return err
			}
			stackName := c.String("vault-stack")
			if stackName == "" {
				stackName = config.DefaultStackName
			}
			name, err := config.ResolveBucketName(c.Context, sts.NewFromConfig(awsCfg), stackName, awsCfg.Region)
			if err != nil {
				return err
			}
			printf(c, "%s\n", name)
			return nil
		},
	}
}

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "print the resolved bucket, key ARN, prefix, and region",
		Action: func(c *cli.Context) error {
			_, params, err := buildVault(c)
			if err != nil {
				return err
			}
			printf(c, "bucket=%s key_arn=%s prefix=%s region=%s\n", params.Bucket, params.KeyArn, params.Prefix, params.Region)
			return nil
		},
	}
}

func storeCommand() *cli.Command {
	return &cli.Command{
		Name:      "store",
		Usage:     "encrypt and store a secret",
		ArgsUsage: "[name]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "value"},
			&cli.StringFlag{Name: "file"},
			&cli.BoolFlag{Name: "overwrite"},
		},
		Action: func(c *cli.Context) error {
			v, params, err := buildVault(c)
			if err != nil {
				return err
			}
			name, err := resolveKeyName(c)
			if err != nil {
				return err
			}
			if name == "" {
				return vaulterr.New(vaulterr.KindBuildIdentifier, "secret name must not be empty")
			}
			if !c.Bool("overwrite") {
				exists, err := v.Exists(c.Context, name)
				if err != nil {
					return err
				}
				if exists {
					return vaulterr.New(vaulterr.KindAlreadyExists, fmt.Sprintf("%q already exists, pass --overwrite to replace it", name))
				}
			}
			payload, err := resolveStoreValue(c)
			if err != nil {
				return err
			}
			if err := v.Store(c.Context, name, payload.AsBytes()); err != nil {
				return err
			}
			printf(c, "stored %s%s\n", params.Prefix, name)
			return nil
		},
	}
}

func lookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "decrypt and print a stored secret",
		ArgsUsage: "<name>",
		Flags:     []cli.Flag{&cli.StringFlag{Name: "outfile"}},
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			if name == "" {
				return vaulterr.New(vaulterr.KindBuildIdentifier, "secret name must not be empty")
			}
			val, err := v.Lookup(c.Context, name)
			if err != nil {
				return err
			}
			return writeValueOutput(c, val)
		},
	}
}

func existsCommand() *cli.Command {
	return &cli.Command{
		Name:      "exists",
		Usage:     "exit 0 if the secret exists, 1 if it doesn't",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			name := c.Args().First()
			if name == "" {
				return vaulterr.New(vaulterr.KindBuildIdentifier, "secret name must not be empty")
			}
			exists, err := v.Exists(c.Context, name)
			if err != nil {
				return err
			}
			if !exists {
				return cli.Exit("", 1)
			}
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "delete one or more stored secrets",
		ArgsUsage: "<name> [name...]",
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			names := c.Args().Slice()
			if len(names) == 0 {
				return vaulterr.New(vaulterr.KindBuildIdentifier, "at least one name is required")
			}
			if len(names) == 1 {
				if err := v.Delete(c.Context, names[0]); err != nil {
					return err
				}
			} else if err := v.DeleteMany(c.Context, names); err != nil {
				return err
			}
			printf(c, "deleted %d secret(s)\n", len(names))
			return nil
		},
	}
}

func allCommand() *cli.Command {
	return &cli.Command{
		Name:  "all",
		Usage: "list every secret name in the bucket",
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			names, err := v.All(c.Context)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(c.App.Writer, n)
			}
			return nil
		},
	}
}

func encryptCommand() *cli.Command {
	return &cli.Command{
		Name:      "encrypt",
		Usage:     "KMS-encrypt a value directly, without AES-GCM envelope wrapping",
		ArgsUsage: "[value]",
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			input, err := readBase64Arg(c)
			if err != nil {
				return err
			}
			wrapped, err := v.DirectEncrypt(c.Context, []byte(input))
			if err != nil {
				return err
			}
			return writeValueOutput(c, value.FromBytes(wrapped).EncodeBase64())
		},
	}
}

func decryptCommand() *cli.Command {
	return &cli.Command{
		Name:      "decrypt",
		Usage:     "KMS-decrypt a base64-encoded blob produced by encrypt",
		ArgsUsage: "[blob]",
		Action: func(c *cli.Context) error {
			v, _, err := buildVault(c)
			if err != nil {
				return err
			}
			input, err := readBase64Arg(c)
			if err != nil {
				return err
			}
			wrapped, err := value.FromBase64OrUTF8(input).DecodeBase64()
			if err != nil {
				return err
			}
			plain, err := v.DirectDecrypt(c.Context, wrapped.AsBytes())
			if err != nil {
				return err
			}
			return writeValueOutput(c, value.FromBytes(plain))
		},
	}
}
