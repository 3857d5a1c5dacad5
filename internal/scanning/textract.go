package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/zombor/receipt-items/internal/document"
)

// TextractAPI is the subset of the Textract client used by Textract
type TextractAPI interface {
	StartDocumentAnalysis(ctx context.Context, params *textract.StartDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.StartDocumentAnalysisOutput, error)
	GetDocumentAnalysis(ctx context.Context, params *textract.GetDocumentAnalysisInput, optFns ...func(*textract.Options)) (*textract.GetDocumentAnalysisOutput, error)
}

// TextractOptions configures job completion notifications
type TextractOptions struct {
	// SNSTopicARN receives a message when a job finishes (optional)
	SNSTopicARN string
	// RoleARN allows Textract to publish to the topic
	RoleARN string
}

// Textract implements the Scanner interface using AWS Textract
type Textract struct {
	client  TextractAPI
	options TextractOptions
}

// NewTextract creates a new Textract Scanner from an AWS config
func NewTextract(cfg aws.Config, options TextractOptions) *Textract {
	return NewTextractWithClient(textract.NewFromConfig(cfg), options)
}

// NewTextractWithClient creates a new Textract Scanner with a custom client for testing
func NewTextractWithClient(client TextractAPI, options TextractOptions) *Textract {
	return &Textract{
		client:  client,
		options: options,
	}
}

// StartAnalysis starts an asynchronous table analysis of a document.
// Requests for the same document share a request token, so repeated
// object-created events reuse the running job.
func (t *Textract) StartAnalysis(ctx context.Context, doc Document) (string, error) {
	input := &textract.StartDocumentAnalysisInput{
		DocumentLocation: &types.DocumentLocation{
			S3Object: &types.S3Object{
				Bucket: aws.String(doc.Bucket),
				Name:   aws.String(doc.Key),
			},
		},
		FeatureTypes:       []types.FeatureType{types.FeatureTypeTables},
		ClientRequestToken: aws.String(requestToken(doc)),
	}

	if t.options.SNSTopicARN != "" {
		input.NotificationChannel = &types.NotificationChannel{
			SNSTopicArn: aws.String(t.options.SNSTopicARN),
			RoleArn:     aws.String(t.options.RoleARN),
		}
	}

	out, err := t.client.StartDocumentAnalysis(ctx, input)
	if err != nil {
		return "", fmt.Errorf("starting document analysis: %w", classify(err))
	}

	return aws.ToString(out.JobId), nil
}

// GetAnalysis fetches all result pages of an analysis job
func (t *Textract) GetAnalysis(ctx context.Context, jobID string) (*Analysis, error) {
	analysis := &Analysis{
		JobID: jobID,
	}

	var nextToken *string
	for {
		out, err := t.client.GetDocumentAnalysis(ctx, &textract.GetDocumentAnalysisInput{
			JobId:     aws.String(jobID),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("getting document analysis: %w", classify(err))
		}

		switch out.JobStatus {
		case types.JobStatusInProgress:
			return nil, ErrAnalysisPending
		case types.JobStatusFailed:
			return nil, fmt.Errorf("analysis %s failed: %s", jobID, aws.ToString(out.StatusMessage))
		}

		analysis.Status = string(out.JobStatus)
		for _, w := range out.Warnings {
			analysis.Warnings = append(analysis.Warnings, fmt.Sprintf("%s on pages %v", aws.ToString(w.ErrorCode), w.Pages))
		}
		for _, b := range out.Blocks {
			analysis.Blocks = append(analysis.Blocks, convertBlock(b))
		}

		if aws.ToString(out.NextToken) == "" {
			break
		}
		nextToken = out.NextToken
	}

	if analysis.Status == string(types.JobStatusPartialSuccess) {
		slog.Warn("Analysis partially succeeded", "job_id", jobID, "warnings", analysis.Warnings)
	}

	return analysis, nil
}

// Close is a no-op; the AWS client holds no resources
func (t *Textract) Close() error {
	return nil
}

func convertBlock(b types.Block) document.Block {
	block := document.Block{
		ID:              aws.ToString(b.Id),
		BlockType:       document.BlockType(b.BlockType),
		Text:            aws.ToString(b.Text),
		SelectionStatus: document.SelectionStatus(b.SelectionStatus),
		RowIndex:        int(aws.ToInt32(b.RowIndex)),
		ColumnIndex:     int(aws.ToInt32(b.ColumnIndex)),
	}

	for _, rel := range b.Relationships {
		block.Relationships = append(block.Relationships, document.Relationship{
			Type: document.RelationshipType(rel.Type),
			IDs:  rel.Ids,
		})
	}

	return block
}

func requestToken(doc Document) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("s3://"+doc.Bucket+"/"+doc.Key)).String()
}

// classify tags API errors the caller can act on
func classify(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "ThrottlingException", "ProvisionedThroughputExceededException", "LimitExceededException":
		return fmt.Errorf("%w: %w", ErrThrottled, err)
	case "InvalidJobIdException":
		return fmt.Errorf("%w: %w", ErrUnknownJob, err)
	}
	return err
}
