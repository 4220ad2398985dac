package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yongha-dev/finopsaudit/internal/model"
)

// DynamoDBAPI is the minimal interface for DynamoDB table operations.
type DynamoDBAPI interface {
	ListTables(ctx context.Context, input *dynamodb.ListTablesInput, opts ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	DescribeTable(ctx context.Context, input *dynamodb.DescribeTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// fetchTables lists and describes every DynamoDB table in the region.
// Consumption samples are filled in separately by the metrics fetcher.
func fetchTables(ctx context.Context, client DynamoDBAPI) ([]model.DynamoTable, error) {
	names, err := listTableNames(ctx, client)
	if err != nil {
		return nil, err
	}

	tables := make([]model.DynamoTable, 0, len(names))
	for _, name := range names {
		out, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: &name,
		})
		if err != nil {
			return nil, fmt.Errorf("describe table %s: %w", name, err)
		}
		if out.Table == nil {
			continue
		}
		tables = append(tables, normalizeTable(name, out.Table))
	}
	return tables, nil
}

func listTableNames(ctx context.Context, client DynamoDBAPI) ([]string, error) {
	var names []string
	paginator := dynamodb.NewListTablesPaginator(client, &dynamodb.ListTablesInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tables: %w", err)
		}
		names = append(names, page.TableNames...)
	}
	return names, nil
}

func normalizeTable(name string, table *ddbtypes.TableDescription) model.DynamoTable {
	t := model.DynamoTable{Name: name}

	if table.BillingModeSummary != nil &&
		table.BillingModeSummary.BillingMode == ddbtypes.BillingModePayPerRequest {
		t.OnDemand = true
		return t
	}

	if pt := table.ProvisionedThroughput; pt != nil {
		if pt.ReadCapacityUnits != nil {
			t.ProvisionedRead = float64(*pt.ReadCapacityUnits)
		}
		if pt.WriteCapacityUnits != nil {
			t.ProvisionedWrite = float64(*pt.WriteCapacityUnits)
		}
	}
	return t
}
