package db

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsphweid/scoreline/model"
)

// fakeTable stores items in memory and leaves the first write request of
// the first call unprocessed.
type fakeTable struct {
	dynamodbiface.DynamoDBAPI
	items      map[string]map[string]*dynamodb.AttributeValue
	writeCalls []int
	throttled  bool
}

func (f *fakeTable) BatchWriteItem(in *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]*dynamodb.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		f.writeCalls = append(f.writeCalls, len(reqs))
		for i, r := range reqs {
			if !f.throttled && i == 0 {
				f.throttled = true
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], r)
				continue
			}
			f.items[*r.PutRequest.Item["PK"].S] = r.PutRequest.Item
		}
	}
	return out, nil
}

func (f *fakeTable) BatchGetItem(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	out := &dynamodb.BatchGetItemOutput{Responses: map[string][]map[string]*dynamodb.AttributeValue{}}
	for table, ka := range in.RequestItems {
		for _, key := range ka.Keys {
			if item, ok := f.items[*key["PK"].S]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func summaries(n int) []model.ScoreSummary {
	var res []model.ScoreSummary
	for i := 0; i < n; i++ {
		res = append(res, model.ScoreSummary{
			ID:    fmt.Sprintf("id-%d", i),
			Path:  fmt.Sprintf("scores/%d.musicxml", i),
			Parts: []string{"P1", "P2"},
			Notes: i,
		})
	}
	return res
}

func TestSummaryItemShape(t *testing.T) {
	item, err := dynamodbattribute.MarshalMap(model.ScoreSummary{ID: "a", Path: "x.xml", Parts: []string{"P1"}, Notes: 3})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(aws.String("a"), item["PK"].S)
	assert.Equal([]*string{aws.String("P1")}, item["Parts"].SS)
	assert.Equal(aws.String("3"), item["Notes"].N)
	assert.NotContains(item, "Title")
}

func TestPutAndGetScoreSummaries(t *testing.T) {
	fake := &fakeTable{items: map[string]map[string]*dynamodb.AttributeValue{}}
	c := NewWithAPI(fake, "scores")

	require.NoError(t, c.PutScoreSummaries(summaries(30)))
	// 25 + retry of 1 + 5
	assert.Equal(t, []int{25, 1, 5}, fake.writeCalls)
	assert.Len(t, fake.items, 30)

	got, err := c.GetScoreSummaries([]string{"id-0", "id-29", "missing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 29, got["id-29"].Notes)
	assert.Equal(t, []string{"P1", "P2"}, got["id-0"].Parts)
}

func TestChunk(t *testing.T) {
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, chunk([]int{1, 2, 3, 4, 5}, 2))
	assert.Nil(t, chunk([]int{}, 2))
}
