package service

import (
	"github.com/google/uuid"
)

func GenID() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("生成 UUID 失败: " + err.Error())
	}

	return id.String()
}

// GenShortID 取 v7 UUID 末尾的随机部分，用作玩家 ID
func GenShortID() string {
	id := GenID()
	return id[len(id)-8:]
}
