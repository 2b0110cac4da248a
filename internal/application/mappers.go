package application

import "github.com/wms-platform/task-control-service/internal/domain"

// ToTaskDTO converts a domain Task to TaskDTO
func ToTaskDTO(task *domain.Task) *TaskDTO {
	if task == nil {
		return nil
	}

	lines := make([]ProductLineDTO, 0, len(task.ProductList))
	for _, line := range task.ProductList {
		lines = append(lines, ToProductLineDTO(line))
	}

	return &TaskDTO{
		CodTask:     task.CodTask,
		CodOperator: task.CodOperator,
		Date:        task.Date,
		Type:        task.Type,
		Status:      task.Status,
		ProductList: lines,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToProductLineDTO converts a domain ProductLine to ProductLineDTO
func ToProductLineDTO(line domain.ProductLine) ProductLineDTO {
	return ProductLineDTO{
		CodProduct: line.CodProduct,
		From:       line.From,
		To:         line.To,
		Quantity:   line.Quantity,
	}
}

// ToTaskDTOs converts a slice of tasks, never returning nil
func ToTaskDTOs(tasks []*domain.Task) []TaskDTO {
	dtos := make([]TaskDTO, 0, len(tasks))
	for _, task := range tasks {
		if dto := ToTaskDTO(task); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}

func toProductLines(inputs []productLineInput) []domain.ProductLine {
	lines := make([]domain.ProductLine, 0, len(inputs))
	for _, in := range inputs {
		lines = append(lines, domain.ProductLine{
			CodProduct: in.CodProduct,
			From:       in.From,
			To:         in.To,
			Quantity:   in.Quantity,
		})
	}
	return lines
}

func toTaskChanges(in taskPatchInput) domain.TaskChanges {
	changes := domain.TaskChanges{
		CodOperator: in.CodOperator,
		Date:        in.Date,
		Type:        in.Type,
		Status:      in.Status,
	}
	if in.ProductList != nil {
		changes.ProductList = make([]domain.ProductLinePatch, 0, len(in.ProductList))
		for _, p := range in.ProductList {
			changes.ProductList = append(changes.ProductList, domain.ProductLinePatch{
				CodProduct: p.CodProduct,
				From:       p.From,
				To:         p.To,
				Quantity:   p.Quantity,
			})
		}
	}
	return changes
}

// patchLinesForChecks renders patch lines as the lines they will become once
// merged over stored, so the constraint evaluation sees the stored shelves
// and the new quantity together. Products missing from stored are checked
// as sent; the merge rejects them afterwards.
func patchLinesForChecks(in []productLinePatchInput, stored []domain.ProductLine) []domain.ProductLine {
	lines := make([]domain.ProductLine, 0, len(in))
	for _, p := range in {
		line := domain.ProductLine{CodProduct: p.CodProduct}
		for _, s := range stored {
			if s.CodProduct == p.CodProduct {
				line = s
				break
			}
		}
		if p.From != nil {
			line.From = *p.From
		}
		if p.To != nil {
			line.To = *p.To
		}
		if p.Quantity != nil {
			line.Quantity = *p.Quantity
		}
		lines = append(lines, line)
	}
	return lines
}
