package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"taskmanager/database"
	"taskmanager/model"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore caps array-contains-any at 30 values.
const maxQueryKeywords = 30

// FirestoreIndex stores one Document per task under a collection and matches
// free text by keyword overlap.
type FirestoreIndex struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreIndex(client *firestore.Client, collection string) *FirestoreIndex {
	return &FirestoreIndex{client: client, collection: collection}
}

func (i *FirestoreIndex) doc(id uint) *firestore.DocumentRef {
	return i.client.Collection(i.collection).Doc(strconv.FormatUint(uint64(id), 10))
}

func (i *FirestoreIndex) Upsert(ctx context.Context, tasks ...model.Task) error {
	var errs []error
	for idx := range tasks {
		if _, err := i.doc(tasks[idx].ID).Set(ctx, NewDocument(&tasks[idx])); err != nil {
			errs = append(errs, fmt.Errorf("task %d: %w", tasks[idx].ID, err))
		}
	}
	return errors.Join(errs...)
}

func (i *FirestoreIndex) Remove(ctx context.Context, ids ...uint) error {
	var errs []error
	for _, id := range ids {
		if _, err := i.doc(id).Delete(ctx); err != nil && status.Code(err) != codes.NotFound {
			errs = append(errs, fmt.Errorf("task %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (i *FirestoreIndex) Search(ctx context.Context, q Query) (Result, error) {
	query := i.client.Collection(i.collection).Where("user_id", "==", int64(q.UserID))
	if keywords := Tokenize(q.Text); len(keywords) > 0 {
		if len(keywords) > maxQueryKeywords {
			keywords = keywords[:maxQueryKeywords]
		}
		query = query.Where("keywords", "array-contains-any", keywords)
	}
	if q.Status != nil {
		query = query.Where("status", "==", string(*q.Status))
	}
	if q.Priority != nil {
		query = query.Where("priority", "==", int64(*q.Priority))
	}

	total, err := i.count(ctx, query)
	if err != nil {
		return Result{}, err
	}

	for _, f := range q.Sort {
		dir := firestore.Asc
		if f.Desc {
			dir = firestore.Desc
		}
		query = query.OrderBy(f.Column, dir)
	}
	res := Result{Total: total}
	offset, ok := database.PageOffset(q.Page, q.PerPage)
	if !ok {
		return res, nil
	}
	query = query.Offset(offset).Limit(q.PerPage)

	iter := query.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("query %s: %w", i.collection, err)
		}
		var doc Document
		if err := snap.DataTo(&doc); err != nil {
			return Result{}, fmt.Errorf("decode %s: %w", snap.Ref.ID, err)
		}
		res.IDs = append(res.IDs, uint(doc.ID))
	}
	return res, nil
}

func (i *FirestoreIndex) count(ctx context.Context, query firestore.Query) (int64, error) {
	results, err := query.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", i.collection, err)
	}
	value, ok := results["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count %s: unexpected aggregation result %T", i.collection, results["all"])
	}
	return value.GetIntegerValue(), nil
}
