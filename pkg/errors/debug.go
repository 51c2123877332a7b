package errors

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	MongoCodes   []int    `json:"mongo_codes,omitempty"`
	MongoLabels  []string `json:"mongo_labels,omitempty"`
	MongoMessage string   `json:"mongo_message,omitempty"`

	GRPCCode    string `json:"grpc_code,omitempty"`
	GRPCMessage string `json:"grpc_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var bulkErr mongo.BulkWriteException
	if errors.As(err, &bulkErr) {
		for _, we := range bulkErr.WriteErrors {
			d.MongoCodes = append(d.MongoCodes, we.Code)
		}
		d.MongoLabels = bulkErr.Labels
		d.MongoMessage = bulkErr.Error()
		return d
	}

	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		for _, we := range writeErr.WriteErrors {
			d.MongoCodes = append(d.MongoCodes, we.Code)
		}
		d.MongoLabels = writeErr.Labels
		d.MongoMessage = writeErr.Error()
		return d
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		d.MongoCodes = []int{int(cmdErr.Code)}
		d.MongoLabels = cmdErr.Labels
		d.MongoMessage = cmdErr.Message
		return d
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		d.GRPCCode = st.Code().String()
		d.GRPCMessage = st.Message()
	}

	return d
}
