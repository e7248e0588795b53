package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client interface para Mock
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher grava o Report como JSON em s3://bucket/prefixo/<runId>.json.
type S3Publisher struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Publisher valida a URI e cria o publisher.
func NewS3Publisher(client S3Client, uri string) (*S3Publisher, error) {
	bucket, prefix, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	return &S3Publisher{client: client, bucket: bucket, prefix: prefix}, nil
}

// ParseS3URI separa "s3://bucket/a/b" em "bucket" e "a/b".
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("report: uri S3 inválida: %s", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("report: uri S3 sem bucket: %s", uri)
	}
	return bucket, strings.Trim(key, "/"), nil
}

// Key retorna a chave do objeto para um run.
func (p *S3Publisher) Key(runID string) string {
	if p.prefix == "" {
		return runID + ".json"
	}
	return p.prefix + "/" + runID + ".json"
}

func (p *S3Publisher) Publish(ctx context.Context, r Report) error {
	body, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("report: erro ao serializar: %w", err)
	}

	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(p.Key(r.RunID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("report: erro ao gravar no S3: %w", err)
	}
	return nil
}
