// Package gcs verifica comprobantes de pago almacenados en Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/jhoicas/supplychain-core/internal/application/ports"
	"github.com/jhoicas/supplychain-core/internal/domain"
)

var _ ports.ProofVerifier = (*ProofVerifier)(nil)

// ProofVerifier comprueba que el objeto referenciado existe. Solo consulta atributos, nunca descarga el contenido.
type ProofVerifier struct {
	client *storage.Client
	bucket string
}

// NewProofVerifier crea el cliente de Storage. credentialsFile vacío usa Application Default Credentials.
func NewProofVerifier(ctx context.Context, bucket, credentialsFile string, opts ...option.ClientOption) (*ProofVerifier, error) {
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &ProofVerifier{client: client, bucket: bucket}, nil
}

// ParseRef separa una referencia en bucket y objeto. Acepta "gs://bucket/ruta" o una ruta
// relativa al bucket por defecto.
func ParseRef(defaultBucket, ref string) (bucket, object string, err error) {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		bucket, object, _ = strings.Cut(rest, "/")
	} else {
		bucket, object = defaultBucket, strings.TrimPrefix(ref, "/")
	}
	if bucket == "" || object == "" {
		return "", "", fmt.Errorf("referencia de comprobante %q: %w", ref, domain.ErrInvalidInput)
	}
	return bucket, object, nil
}

// Verify devuelve domain.ErrInvalidInput si el objeto no existe.
func (v *ProofVerifier) Verify(ctx context.Context, ref string) error {
	bucket, object, err := ParseRef(v.bucket, ref)
	if err != nil {
		return err
	}
	_, err = v.client.Bucket(bucket).Object(object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("comprobante %s no existe: %w", ref, domain.ErrInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("gcs attrs %s: %w", ref, err)
	}
	return nil
}

func (v *ProofVerifier) Close() error {
	return v.client.Close()
}
