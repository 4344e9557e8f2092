package models

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var Validate = validator.New()

const UsersCollection = "users"

// UserRepo is the credential store: the single source of truth for
// user records and the only serialization point for refresh-token
// rotation.
type UserRepo interface {
	CreateUser(ctx context.Context, user *User) (*User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*User, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	ClearRefreshToken(ctx context.Context, id primitive.ObjectID) error
}

type MongoUserRepo struct {
	client *mongo.Client
	dbName string
}

func NewMongoUserRepo(client *mongo.Client, dbName string) *MongoUserRepo {
	return &MongoUserRepo{
		client: client,
		dbName: dbName,
	}
}

func (r *MongoUserRepo) users() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(UsersCollection)
}
