package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mmdatafocus/servicecenter_backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

func redisItemKey[T any](id int) string {
	return GetTypeName[T]() + ":" + fmt.Sprint(id)
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj *T, id int) error {
	return config.SetRedisObject(redisItemKey[T](id), obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result T
	exists, err := config.GetRedisObject(redisItemKey[T](id), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	return config.RemoveRedisKey(redisItemKey[T](id))
}
