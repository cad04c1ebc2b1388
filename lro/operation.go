// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package lro

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/longrunning/autogen/longrunningpb"
	gax "github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// Operation is a future for an asynchronous server-side job. It caches the
// last observed operation state; Poll and Wait refresh it.
//
// An Operation is not safe for concurrent use.
type Operation struct {
	client *Client
	proto  *longrunningpb.Operation
}

// Operation wraps an operation message returned by an initiating RPC into
// a pollable future.
func (c *Client) Operation(op *longrunningpb.Operation) *Operation {
	return &Operation{client: c, proto: op}
}

// Name returns the server-assigned operation name.
func (o *Operation) Name() string { return o.proto.GetName() }

// Done reports whether the job reached a terminal state as of the last
// refresh.
func (o *Operation) Done() bool { return o.proto.GetDone() }

// Latest returns the most recently observed operation state without
// touching the network.
func (o *Operation) Latest() *longrunningpb.Operation { return o.proto }

// Poll refreshes the operation state once.
func (o *Operation) Poll(ctx context.Context, opts ...gax.CallOption) error {
	if o.proto.GetDone() {
		return nil
	}
	op, err := o.client.GetOperation(ctx, &longrunningpb.GetOperationRequest{Name: o.proto.GetName()}, opts...)
	if err != nil {
		return err
	}
	o.proto = op
	return nil
}

// Wait polls until the job reaches a terminal state or ctx is done,
// backing off between polls. It returns the terminal operation; a failed
// job is reported in the operation's error field, which Wait deliberately
// does not interpret — job-level failure handling belongs to the caller.
func (o *Operation) Wait(ctx context.Context, opts ...gax.CallOption) (*longrunningpb.Operation, error) {
	bo := gax.Backoff{
		Initial:    time.Second,
		Max:        time.Minute,
		Multiplier: 1.6,
	}
	for !o.proto.GetDone() {
		if err := o.Poll(ctx, opts...); err != nil {
			return nil, err
		}
		if o.proto.GetDone() {
			break
		}
		if err := gax.Sleep(ctx, bo.Pause()); err != nil {
			return nil, err
		}
	}
	return o.proto, nil
}

// Cancel asks the server to cancel the job. Completion of the cancellation
// is not guaranteed synchronously.
func (o *Operation) Cancel(ctx context.Context, opts ...gax.CallOption) error {
	return o.client.CancelOperation(ctx, &longrunningpb.CancelOperationRequest{Name: o.proto.GetName()}, opts...)
}

// Delete removes the operation record. The server rejects this while the
// job is still running.
func (o *Operation) Delete(ctx context.Context, opts ...gax.CallOption) error {
	return o.client.DeleteOperation(ctx, &longrunningpb.DeleteOperationRequest{Name: o.proto.GetName()}, opts...)
}

// ResponseAs unpacks a terminal operation's response into its declared
// message type.
func ResponseAs[T proto.Message](op *longrunningpb.Operation) (T, error) {
	var zero T
	resp := op.GetResponse()
	if resp == nil {
		if s := op.GetError(); s != nil {
			return zero, fmt.Errorf("operation %q failed: %s", op.GetName(), s.GetMessage())
		}
		return zero, fmt.Errorf("operation %q has no response", op.GetName())
	}
	msg := zero.ProtoReflect().New().Interface()
	if err := anypb.UnmarshalTo(resp, msg, proto.UnmarshalOptions{DiscardUnknown: true}); err != nil {
		return zero, fmt.Errorf("unpack operation response: %w", err)
	}
	return msg.(T), nil
}

// MetadataAs unpacks the operation's metadata into its declared message
// type.
func MetadataAs[T proto.Message](op *longrunningpb.Operation) (T, error) {
	var zero T
	md := op.GetMetadata()
	if md == nil {
		return zero, fmt.Errorf("operation %q has no metadata", op.GetName())
	}
	msg := zero.ProtoReflect().New().Interface()
	if err := anypb.UnmarshalTo(md, msg, proto.UnmarshalOptions{DiscardUnknown: true}); err != nil {
		return zero, fmt.Errorf("unpack operation metadata: %w", err)
	}
	return msg.(T), nil
}
