package repository

import "gorm.io/gorm"

// maxPageSize 礼物与通知列表的单页条数上限
const maxPageSize = 100

// applyPagination 应用分页参数，统一处理非法页码、偏移量与超限页大小。
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if query == nil || pageSize <= 0 {
		return query
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize
	if offset < 0 {
		offset = 0
	}
	return query.Limit(pageSize).Offset(offset)
}
