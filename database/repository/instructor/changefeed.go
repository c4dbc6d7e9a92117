package instructorRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeStream is the slice of mongo.ChangeStream the watch loop needs,
// split out so the reconnect logic is testable.
type changeStream interface {
	Next(ctx context.Context) bool
	Decode(val interface{}) error
	ResumeToken() bson.Raw
	Close(ctx context.Context) error
}

// streamOpener opens a change stream, optionally resuming after a token.
type streamOpener func(ctx context.Context, resumeAfter bson.Raw) (changeStream, error)

// WatchInstructorChanges opens a change stream on the instructors
// collection and emits the id of every instructor whose document changes.
// When the stream fails it is reopened with backoff, resuming from the
// last seen token, so a transient store hiccup does not silence live
// updates. The returned channel closes only when the context ends.
//
// The change feed is the sole broadcast trigger: any write to an
// instructor document, from this process or another server instance,
// surfaces here.
func (r *MongoInstructorRepo) WatchInstructorChanges(ctx context.Context) (<-chan string, error) {
	open := func(ctx context.Context, resumeAfter bson.Raw) (changeStream, error) {
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}},
			}}},
		}
		opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
		if resumeAfter != nil {
			opts.SetResumeAfter(resumeAfter)
		}
		return r.coll.Watch(ctx, pipeline, opts)
	}

	stream, err := open(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open instructor change stream: %w", err)
	}

	out := make(chan string, 64)
	go watchLoop(ctx, stream, open, out, time.Second)
	return out, nil
}

// watchLoop consumes streams into out until the context ends, reopening
// a failed stream after a backoff. The resume token carries across
// reopens; if resuming itself fails the next attempt starts a fresh
// stream.
func watchLoop(ctx context.Context, stream changeStream, open streamOpener, out chan<- string, baseBackoff time.Duration) {
	defer close(out)

	const maxBackoff = 30 * time.Second
	backoff := baseBackoff
	for {
		resume := drainStream(ctx, stream, out)
		stream.Close(context.Background())
		if ctx.Err() != nil {
			return
		}

		var next changeStream
		for next == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			s, err := open(ctx, resume)
			if err != nil {
				// The resume point may have aged out of the oplog.
				resume = nil
				if backoff < maxBackoff {
					backoff *= 2
				}
				continue
			}
			next = s
		}
		stream = next
		backoff = baseBackoff
	}
}

// drainStream forwards changed instructor ids until the stream ends and
// returns the last resume token it saw.
func drainStream(ctx context.Context, stream changeStream, out chan<- string) bson.Raw {
	var resume bson.Raw
	for stream.Next(ctx) {
		resume = stream.ResumeToken()
		var event struct {
			FullDocument struct {
				ID string `bson:"id"`
			} `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			continue
		}
		if event.FullDocument.ID == "" {
			continue
		}
		select {
		case out <- event.FullDocument.ID:
		case <-ctx.Done():
			return resume
		}
	}
	return resume
}
