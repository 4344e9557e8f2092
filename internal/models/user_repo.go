package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique indexes backing the username/email
// uniqueness invariant. Values are stored lowercased, so the unique
// index is effectively case-insensitive.
func (r *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %v", err)
	}
	return nil
}

func (r *MongoUserRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	res, err := r.users().InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, NewConflictError("user with same email or username already exists")
		}
		return nil, NewInternalError(fmt.Sprintf("failed to create user: %v", err))
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

func (r *MongoUserRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	var user User
	err := r.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError(fmt.Sprintf("failed to get user: %v", err))
	}
	return &user, nil
}

func (r *MongoUserRepo) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*User, error) {
	filter := bson.M{"$or": []bson.M{
		{"username": username},
		{"email": email},
	}}

	var user User
	err := r.users().FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, NewInternalError(fmt.Sprintf("failed to get user: %v", err))
	}
	return &user, nil
}

func (r *MongoUserRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*User, error) {
	if len(fields) == 0 {
		return nil, NewValidationError("no fields to update")
	}

	set := bson.M{}
	for key, value := range fields {
		set[key] = value
	}
	set["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated User
	err := r.users().FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewNotFoundError("user not found")
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, NewConflictError("user with same email or username already exists")
		}
		return nil, NewInternalError(fmt.Sprintf("failed to update user: %v", err))
	}
	return &updated, nil
}

func (r *MongoUserRepo) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	res, err := r.users().UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return NewInternalError(fmt.Sprintf("failed to update password: %v", err))
	}
	if res.MatchedCount == 0 {
		return NewNotFoundError("user not found")
	}
	return nil
}

func (r *MongoUserRepo) SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error {
	res, err := r.users().UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"refreshToken": token,
		"updatedAt":    time.Now(),
	}})
	if err != nil {
		return NewInternalError(fmt.Sprintf("failed to store refresh token: %v", err))
	}
	if res.MatchedCount == 0 {
		return NewNotFoundError("user not found")
	}
	return nil
}

func (r *MongoUserRepo) ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.users().UpdateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now()},
	})
	if err != nil {
		return NewInternalError(fmt.Sprintf("failed to clear refresh token: %v", err))
	}
	if res.MatchedCount == 0 {
		return NewNotFoundError("user not found")
	}
	return nil
}
