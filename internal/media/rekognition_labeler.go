package media

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type RekognitionAPI interface {
	DetectLabels(ctx context.Context, params *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionLabeler reads from bucket when one is set, otherwise it sends
// the image bytes inline.
type RekognitionLabeler struct {
	client RekognitionAPI
	bucket string
}

func NewRekognitionLabeler(client RekognitionAPI, bucket string) *RekognitionLabeler {
	return &RekognitionLabeler{client: client, bucket: bucket}
}

func (l *RekognitionLabeler) DetectLabels(ctx context.Context, img Image, maxLabels int32, minConfidence float32) ([]string, error) {
	input := &rekognition.DetectLabelsInput{
		Image:         &types.Image{},
		MaxLabels:     aws.Int32(maxLabels),
		MinConfidence: aws.Float32(minConfidence),
	}
	if l.bucket != "" && img.Key != "" {
		input.Image.S3Object = &types.S3Object{
			Bucket: aws.String(l.bucket),
			Name:   aws.String(img.Key),
		}
	} else {
		input.Image.Bytes = img.Bytes
	}

	out, err := l.client.DetectLabels(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("rekognition detect labels: %w", err)
	}

	// The service treats MaxLabels and MinConfidence as hints
	labels := make([]string, 0, len(out.Labels))
	for _, label := range out.Labels {
		if int32(len(labels)) >= maxLabels {
			break
		}
		if label.Name == nil || label.Confidence == nil || *label.Confidence < minConfidence {
			continue
		}
		labels = append(labels, *label.Name)
	}
	return labels, nil
}
