package main

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"

	"github.com/jacentio/trellis-memory/stream"
)

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Run the DynamoDB Streams workspace registration Lambda handler",
	Long: `Starts the AWS Lambda runtime with a handler that registers the workspace of
every entity or relation row written to the graph tables. Attach the function
to the streams of the entities and relations tables.

"graphmem serve" creates those two tables with NEW_IMAGE streams enabled.
Tables that already existed keep their stream settings; enable a stream on
them with "aws dynamodb update-table --stream-specification
StreamEnabled=true,StreamViewType=NEW_IMAGE".`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()
		svc, err := newService(cmd.Context(), logger)
		if err != nil {
			return err
		}
		handler := stream.NewHandler(svc.Workspaces, logger)
		lambda.Start(handler.HandleWorkspaceRegistration)
		return nil
	},
}
