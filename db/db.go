package db

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/pkg/errors"

	"github.com/jsphweid/scoreline/config"
	"github.com/jsphweid/scoreline/constants"
	"github.com/jsphweid/scoreline/model"
)

// unprocessed items are retried this many times before giving up
const maxRetries = 5

type Client struct {
	api   dynamodbiface.DynamoDBAPI
	table string
}

func New(cfg config.DynamoConfig) (*Client, error) {
	endpoint := cfg.Endpoint
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String(cfg.Region),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new DynamoDB session")
	}
	return NewWithAPI(dynamodb.New(sess), cfg.Table), nil
}

func NewWithAPI(api dynamodbiface.DynamoDBAPI, table string) *Client {
	return &Client{api: api, table: table}
}

func chunk[T any](items []T, size int) [][]T {
	var res [][]T
	for len(items) > size {
		res = append(res, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		res = append(res, items)
	}
	return res
}

// PutScoreSummaries writes summaries in batches of 25, retrying whatever
// DynamoDB reports as unprocessed.
func (c *Client) PutScoreSummaries(summaries []model.ScoreSummary) error {
	var requests []*dynamodb.WriteRequest
	for _, s := range summaries {
		item, err := dynamodbattribute.MarshalMap(s)
		if err != nil {
			return errors.Wrapf(err, "marshalling summary %s", s.ID)
		}
		requests = append(requests, &dynamodb.WriteRequest{PutRequest: &dynamodb.PutRequest{Item: item}})
	}

	for _, batch := range chunk(requests, constants.MaxBatchWrite) {
		pending := map[string][]*dynamodb.WriteRequest{c.table: batch}
		for attempt := 0; len(pending[c.table]) > 0; attempt++ {
			if attempt > maxRetries {
				return errors.Errorf("%d summaries still unprocessed after %d retries", len(pending[c.table]), maxRetries)
			}
			out, err := c.api.BatchWriteItem(&dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return errors.Wrap(err, "error from DynamoDB")
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
}

// GetScoreSummaries looks summaries up by ID. IDs that are not stored are
// simply absent from the result.
func (c *Client) GetScoreSummaries(ids []string) (map[string]model.ScoreSummary, error) {
	res := make(map[string]model.ScoreSummary)

	for _, batch := range chunk(ids, constants.MaxBatchGet) {
		var keys []map[string]*dynamodb.AttributeValue
		for _, id := range batch {
			keys = append(keys, map[string]*dynamodb.AttributeValue{
				"PK": {S: aws.String(id)},
			})
		}
		pending := map[string]*dynamodb.KeysAndAttributes{c.table: {Keys: keys}}
		for attempt := 0; len(pending) > 0 && pending[c.table] != nil && len(pending[c.table].Keys) > 0; attempt++ {
			if attempt > maxRetries {
				return nil, errors.Errorf("%d keys still unprocessed after %d retries", len(pending[c.table].Keys), maxRetries)
			}
			out, err := c.api.BatchGetItem(&dynamodb.BatchGetItemInput{RequestItems: pending})
			if err != nil {
				return nil, errors.Wrap(err, "error from DynamoDB")
			}
			for _, item := range out.Responses[c.table] {
				var s model.ScoreSummary
				if err := dynamodbattribute.UnmarshalMap(item, &s); err != nil {
					return nil, errors.Wrap(err, "unmarshalling summary")
				}
				res[s.ID] = s
			}
			pending = out.UnprocessedKeys
		}
	}
	return res, nil
}
