package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// GetSecretValueAPI is the slice of the Secrets Manager client used here.
type GetSecretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// signingKeySecret mirrors the JSON stored in the vault entry.
type signingKeySecret struct {
	JWTSecret string `json:"jwtSecret"`
}

type secretsManagerProvider struct {
	client     GetSecretValueAPI
	secretName string
}

// NewSecretsManagerProvider reads the signing key from an AWS Secrets
// Manager entry holding {"jwtSecret": "..."}.
func NewSecretsManagerProvider(client GetSecretValueAPI, secretName string) Provider {
	return &secretsManagerProvider{client: client, secretName: secretName}
}

func (p *secretsManagerProvider) SigningKey(ctx context.Context) ([]byte, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return nil, fmt.Errorf("get secret %s: %w", p.secretName, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("secret %s has no string value", p.secretName)
	}

	key, err := parseSigningKeySecret(*out.SecretString)
	if err != nil {
		return nil, fmt.Errorf("parse secret %s: %w", p.secretName, err)
	}
	return key, nil
}

func parseSigningKeySecret(raw string) ([]byte, error) {
	var secret signingKeySecret
	if err := json.Unmarshal([]byte(raw), &secret); err != nil {
		return nil, err
	}
	if secret.JWTSecret == "" {
		return nil, errors.New("jwtSecret field is empty")
	}
	return []byte(secret.JWTSecret), nil
}
