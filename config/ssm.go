package config

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// LoadSSM overlays parameters stored under SSM_PARAMETER_PATH onto config.
// /rooms/prod/sanity_api_token becomes SANITY_API_TOKEN. Values already in
// the environment win. Nothing happens when the path is unset.
func LoadSSM(ctx context.Context, config map[string]string) error {
	prefix := GetString(config, "SSM_PARAMETER_PATH", "")
	if prefix == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	return overlaySSM(ctx, ssm.NewFromConfig(awsCfg), prefix, config)
}

func overlaySSM(ctx context.Context, client ssm.GetParametersByPathAPIClient, prefix string, config map[string]string) error {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, p := range page.Parameters {
			key := strings.ToUpper(strings.ReplaceAll(path.Base(aws.ToString(p.Name)), "-", "_"))
			if _, ok := config[key]; ok {
				continue
			}
			config[key] = aws.ToString(p.Value)
			loaded++
		}
	}

	log.Info().Str("path", prefix).Int("parameters", loaded).Msg("Loaded configuration from SSM")
	return nil
}
