package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/fastbb/pkg/response"
)

type pageQuery struct {
	Skip  int `form:"skip" binding:"gte=0"`
	Limit int `form:"limit" binding:"gte=0,lte=100"`
}

func bindPage(c *gin.Context) (pageQuery, error) {
	q := pageQuery{Limit: 100}
	err := c.ShouldBindQuery(&q)
	if q.Limit == 0 {
		q.Limit = 100
	}
	return q, err
}

func (q pageQuery) meta(count int) response.PageMeta {
	return response.PageMeta{Skip: q.Skip, Limit: q.Limit, Count: count}
}
